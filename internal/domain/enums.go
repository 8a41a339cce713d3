package domain

// BookingType discriminates the kind of reservation a ParsedBooking describes.
type BookingType string

const (
	BookingTypeFlight   BookingType = "flight"
	BookingTypeHotel    BookingType = "hotel"
	BookingTypeCar      BookingType = "car"
	BookingTypeActivity BookingType = "activity"
	BookingTypeOther    BookingType = "other"
)

// ValidBookingTypes is the set of booking types accepted from the extractor.
var ValidBookingTypes = map[BookingType]bool{
	BookingTypeFlight:   true,
	BookingTypeHotel:    true,
	BookingTypeCar:      true,
	BookingTypeActivity: true,
	BookingTypeOther:    true,
}

// TripNameSource records who assigned a trip's name.
type TripNameSource string

const (
	TripNameGenerated TripNameSource = "generated"
	TripNameUser      TripNameSource = "user"
)

// TripSource records how a trip first came into existence.
type TripSource string

const (
	TripSourceEmail  TripSource = "email"
	TripSourceUpload TripSource = "upload"
	TripSourceManual TripSource = "manual"
)

// IngestChannel identifies the inbound delivery channel of a document.
type IngestChannel string

const (
	ChannelEmail  IngestChannel = "email"
	ChannelUpload IngestChannel = "upload"
	ChannelReplay IngestChannel = "replay"
)

// TripSource maps the channel a document arrived on to the source recorded on new trips.
func (c IngestChannel) TripSource() TripSource {
	if c == ChannelUpload {
		return TripSourceUpload
	}
	return TripSourceEmail
}

// IngestStatus is the terminal state of one ingestion run.
type IngestStatus string

const (
	IngestStatusCompleted       IngestStatus = "completed"
	IngestStatusNotBooking      IngestStatus = "not_booking"
	IngestStatusExtractionEmpty IngestStatus = "extraction_empty"
	IngestStatusFailed          IngestStatus = "failed"
)

// UpsertOutcome reports whether a booking write created a row.
type UpsertOutcome string

const (
	UpsertInserted UpsertOutcome = "inserted"
	UpsertSkipped  UpsertOutcome = "skipped"
)

// Supported inbound mime types.
const (
	MimeTextPlain = "text/plain"
	MimeTextHTML  = "text/html"
	MimePDF       = "application/pdf"
)

// ValidMimeTypes is the set of mime types the ingestion pipeline accepts.
var ValidMimeTypes = map[string]bool{
	MimeTextPlain: true,
	MimeTextHTML:  true,
	MimePDF:       true,
}
