package models

// AppModel represents the UI state - only touched from the Bubble Tea update loop
type AppModel struct {
	Transcript   *Transcript     // Messages shown in the chat view
	Status       string          // Status bar text
	IsProcessing bool            // A request is in flight
	SendEnabled  bool            // Whether a new send is accepted
	ServiceReady bool            // Inference service finished initializing
	Loading      bool            // No service status reported yet
	InFlight     *PendingRequest // Request currently owned by the worker
	Width        int             // Terminal width
	Height       int             // Terminal height
}

func NewAppModel() AppModel {
	return AppModel{
		Transcript:  NewTranscript(),
		Status:      "Loading model",
		SendEnabled: true,
		Loading:     true,
	}
}

// Idle reports whether the controller accepts a new send.
func (m *AppModel) Idle() bool {
	return m.SendEnabled && !m.IsProcessing
}

func (m *AppModel) SetBusy(req PendingRequest) {
	m.IsProcessing = true
	m.SendEnabled = false
	m.InFlight = &req
}

func (m *AppModel) SetIdle() {
	m.IsProcessing = false
	m.SendEnabled = true
	m.InFlight = nil
}
