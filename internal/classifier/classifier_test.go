package classifier_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"itinera/internal/classifier"
)

const flightAndHotel = `Confirmation: ABC123, Flight JFK→LHR, Depart 2026-03-01
Hotel Grand Plaza, Check-in 2026-03-01, Check-out 2026-03-05`

func TestClassify_ConfirmationEmail(t *testing.T) {
	c := classifier.New(0)

	res := c.Classify(flightAndHotel)

	assert.True(t, res.Likely)
	// confirmation 3 + code 1 + date 2 + three travel nouns
	assert.Equal(t, 9, res.Score)
	assert.Contains(t, res.Signals, "code")
	assert.Contains(t, res.Signals, "date")
	assert.True(t, c.IsLikelyBooking(flightAndHotel))
}

func TestClassify_MarketingEmailRejected(t *testing.T) {
	c := classifier.New(classifier.DefaultThreshold)
	text := "Flash sale! Save up to 50% off hotels this weekend. Book now before the sale ends. Unsubscribe here."

	res := c.Classify(text)

	assert.False(t, res.Likely)
	assert.Less(t, res.Score, 0)
}

func TestClassify_DateAndNounsWithoutConfirmationRejected(t *testing.T) {
	c := classifier.New(classifier.DefaultThreshold)

	res := c.Classify("Reminder: your flight leaves from gate B12 on 2026-03-01.")

	assert.False(t, res.Likely)
	assert.Equal(t, 4, res.Score)
}

func TestClassify_TravelNounsAreCapped(t *testing.T) {
	c := classifier.New(classifier.DefaultThreshold)

	res := c.Classify("flight hotel room seat gate terminal passenger boarding")

	assert.Equal(t, 3, res.Score)
	assert.False(t, res.Likely)
}

func TestClassify_MarketingPenaltyIsCapped(t *testing.T) {
	c := classifier.New(classifier.DefaultThreshold)
	text := `Your reservation is confirmed. Reservation number ZX81K2 for Mar 3, 2026.
Unsubscribe from our newsletter. Special offer: promo code SAVE10, limited time.`

	res := c.Classify(text)

	// 3 + 1 + 2 - 2
	assert.Equal(t, 4, res.Score)
}

func TestClassify_WrittenDate(t *testing.T) {
	c := classifier.New(classifier.DefaultThreshold)

	res := c.Classify("Booking confirmed for your hotel stay on 3rd March 2026")

	assert.True(t, res.Likely)
	assert.Contains(t, res.Signals, "date")
}

func TestClassify_CodeRequiresDigit(t *testing.T) {
	c := classifier.New(classifier.DefaultThreshold)

	res := c.Classify("Booking confirmed. Reference: PENDING")

	assert.NotContains(t, res.Signals, "code")
}

func TestClassify_Empty(t *testing.T) {
	c := classifier.New(classifier.DefaultThreshold)

	res := c.Classify("   ")

	assert.Equal(t, 0, res.Score)
	assert.False(t, res.Likely)
}

func TestNew_CustomThreshold(t *testing.T) {
	c := classifier.New(2)

	assert.Equal(t, 2, c.Threshold())
	assert.True(t, c.IsLikelyBooking("Your flight leaves on 2026-03-01"))
}
