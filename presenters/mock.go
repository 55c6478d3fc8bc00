package presenters

func NewMock() *Mock {
	return &Mock{}
}

// Mock records the rendered contents.
type Mock struct {
	ReceivedContents []map[string]any
	ReturnError      error
}

func (m *Mock) Render(content map[string]any) error {
	m.ReceivedContents = append(m.ReceivedContents, content)
	return m.ReturnError
}

func (m *Mock) LastReceivedContent() map[string]any {
	if len(m.ReceivedContents) == 0 {
		return nil
	}
	return m.ReceivedContents[len(m.ReceivedContents)-1]
}
