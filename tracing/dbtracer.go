package tracing

import (
	"github.com/sarchlab/pktflow/datarecording"
)

const packetEventTable = "packet_events"

type packetEventRow struct {
	Time     float64
	Kind     string
	Element  string
	PacketID string
	Packet   string
	Length   int64
	Priority int
	Reason   string
	Limit    int64
}

// DBTracer writes every packet event as a row of the packet_events table.
type DBTracer struct {
	recorder datarecording.DataRecorder
}

// NewDBTracer creates a DBTracer and the table it writes to.
func NewDBTracer(recorder datarecording.DataRecorder) *DBTracer {
	recorder.CreateTable(packetEventTable, packetEventRow{})

	return &DBTracer{recorder: recorder}
}

// Trace records the event.
func (t *DBTracer) Trace(evt PacketEvent) {
	row := packetEventRow{
		Time:     evt.Time,
		Kind:     string(evt.Kind),
		Element:  evt.Element,
		PacketID: evt.Packet.ID,
		Packet:   evt.Packet.Name,
		Length:   evt.Packet.Length,
		Priority: evt.Packet.UserPriority,
	}

	if evt.Kind == Dropped {
		row.Reason = string(evt.Drop.Reason)
		row.Limit = evt.Drop.Limit
	}

	t.recorder.InsertData(packetEventTable, row)
}
