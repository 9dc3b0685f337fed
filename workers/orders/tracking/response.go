package tracking

// ShipmentQuery is one entry of a tracking submission batch.
type ShipmentQuery struct {
	TrackingID string `json:"trackingId"`
	Language   string `json:"language"`
	Country    string `json:"country"`
	Zipcode    string `json:"zipcode,omitempty"`
}

type SubmitRequest struct {
	APIKey    string          `json:"apiKey"`
	Shipments []ShipmentQuery `json:"shipments"`
}

type ShipmentState struct {
	Location string `json:"location"`
	Date     string `json:"date"`
	Status   string `json:"status"`
}

// ShipmentResult is the resolved tracking data for one shipment.
type ShipmentResult struct {
	TrackingID  string          `json:"trackingId"`
	Status      string          `json:"status"`
	DeliveredBy string          `json:"delivered_by"`
	LastState   *ShipmentState  `json:"lastState"`
	States      []ShipmentState `json:"states"`
}

// ApiResponse is returned by both the submit and poll endpoints. A
// submit may answer with inline cached shipments, a poll UUID, or both;
// a poll reports Done once every shipment has resolved.
type ApiResponse struct {
	UUID      string           `json:"uuid"`
	Done      bool             `json:"done"`
	Shipments []ShipmentResult `json:"shipments"`
}
