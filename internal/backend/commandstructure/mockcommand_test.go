package commandstructure

// mockCommand runs executeFunc, or passes data through when it is nil.
type mockCommand struct {
	name        string
	executeFunc func([]byte) ([]byte, error)
}

func (m *mockCommand) Name() string { return m.name }

func (m *mockCommand) Execute(imageData []byte) ([]byte, error) {
	if m.executeFunc == nil {
		return imageData, nil
	}
	return m.executeFunc(imageData)
}

func newMockCommand(name string) *mockCommand {
	return &mockCommand{name: name}
}

func newMockCommandWithError(name string, err error) *mockCommand {
	return &mockCommand{
		name:        name,
		executeFunc: func([]byte) ([]byte, error) { return nil, err },
	}
}
