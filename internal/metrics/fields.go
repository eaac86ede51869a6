package metrics

// Attribute keys shared by the otel instruments.
const (
	AttrMethod    = "method"
	AttrPath      = "path"
	AttrStatus    = "status"
	AttrOperation = "operation"
	AttrFrameType = "frame_type"
)
