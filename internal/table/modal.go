package table

// ModalState is the lifecycle of a create, edit or bulk-update form.
//
//	Closed -> Opened -> Submitting -> Closed        (success)
//	                              \-> Opened + Err  (failure, values kept)
type ModalState int

const (
	ModalClosed ModalState = iota
	ModalOpened
	ModalSubmitting
)

func (s ModalState) String() string {
	switch s {
	case ModalOpened:
		return "opened"
	case ModalSubmitting:
		return "submitting"
	default:
		return "closed"
	}
}

// Modal is a snapshot of one form.
type Modal[V any] struct {
	State       ModalState
	Values      V
	Err         string
	FieldErrors map[string]string
	// TargetID is the entry being edited.
	TargetID int64
	// IDs are the entries a bulk update applies to.
	IDs []int64
}

func (m *Modal[V]) open(values V) {
	*m = Modal[V]{State: ModalOpened, Values: values}
}

func (m *Modal[V]) fail(values V, msg string, fields map[string]string) {
	m.State = ModalOpened
	m.Values = values
	m.Err = msg
	m.FieldErrors = fields
}

func (m *Modal[V]) close() {
	*m = Modal[V]{}
}
