package solver

const instruction = "Please solve this math or science problem and provide a detailed explanation. " +
	"Format mathematical expressions using LaTeX notation ($...$ for inline math and $$...$$ for display math): "

// BuildPrompt prefixes the question with the solving instruction and attaches the
// preprocessed JPEG when there is one. The question is passed through verbatim.
func BuildPrompt(question string, jpeg []byte) Prompt {
	p := Prompt{Text: instruction + question}
	if len(jpeg) > 0 {
		p.Image = jpeg
		p.MIMEType = "image/jpeg"
	}
	return p
}
