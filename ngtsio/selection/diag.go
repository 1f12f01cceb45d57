package selection

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// Diagnostics aggregates the non-fatal conditions of one resolution call.
// Every message is logged at Warn as it is recorded and kept for the caller;
// diagnostics never alter control flow.
type Diagnostics struct {
	CallID uuid.UUID
	Items  []string
}

func NewDiagnostics() *Diagnostics {
	return &Diagnostics{CallID: uuid.New()}
}

// Warnf records and logs one diagnostic.
func (d *Diagnostics) Warnf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	d.Items = append(d.Items, msg)
	slog.Warn(msg, "call_id", d.CallID.String())
}

// Messages returns the recorded diagnostics in order.
func (d *Diagnostics) Messages() []string { return d.Items }
