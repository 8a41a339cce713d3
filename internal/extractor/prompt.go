package extractor

// BuildBookingPrompt returns the extraction prompt for one normalized document.
func BuildBookingPrompt(schema string) string {
	return `You are a travel itinerary extraction assistant. Read the document below and list every travel reservation it confirms.

IMPORTANT INSTRUCTIONS:
- Extract only confirmed reservations: flights, hotel stays, car rentals, tours or tickets. Ignore advertisements, suggestions and loyalty offers.
- One record per reservation. A round trip with two flight segments under one confirmation code is two records only if the segments are on different dates.
- "type" is one of: flight, hotel, car, activity, other.
- Dates are YYYY-MM-DD. For hotels, startDate is check-in and endDate is check-out. For flights, startDate is the departure date and endDate the arrival date.
- For flights, origin and destination are the 3-letter IATA airport codes when shown.
- For hotels, destination is the city of the property.
- "price" is the total amount charged as shown; "currency" is its ISO 4217 code.
- "rawSourceExcerpt" is the shortest passage of the document that supports the record.
- "confidence" is your confidence from 0 to 1 that the record is a real, correctly read reservation.
- Use null for anything the document does not state. Never guess a confirmation number or a date.

Return ONLY valid JSON with no markdown formatting, no code fences, no explanation: an object with a single key "bookings" holding an array of records. Return {"bookings": []} if there are none.

Each record must follow this JSON schema:
` + schema + `

The document follows.`
}

// BuildTranscribePrompt returns the prompt used to read text out of a PDF.
func BuildTranscribePrompt() string {
	return `Transcribe all readable text of the attached document as plain text, preserving reading order and line breaks. Include tables row by row. Do not summarize, translate or add commentary.`
}
