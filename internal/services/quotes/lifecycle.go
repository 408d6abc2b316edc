package quotes

import (
	"github.com/xelth-com/eckbiz/internal/lifecycle"
	"github.com/xelth-com/eckbiz/internal/models"
)

// Actions accepted by Transition.
const (
	ActionSend    = "send"
	ActionView    = "view"
	ActionAccept  = "accept"
	ActionReject  = "reject"
	ActionExpire  = "expire"
	ActionConvert = "convert"
)

var open = []models.QuoteStatus{models.QuoteDraft, models.QuoteSent, models.QuoteViewed}

// Machine is the quote lifecycle. Accepted, rejected, expired and converted
// quotes can no longer be edited.
var Machine = lifecycle.New("quote", map[string]lifecycle.Transition[models.QuoteStatus]{
	ActionSend:    {From: open, To: models.QuoteSent},
	ActionView:    {From: []models.QuoteStatus{models.QuoteSent, models.QuoteViewed}, To: models.QuoteViewed},
	ActionAccept:  {From: open, To: models.QuoteAccepted},
	ActionReject:  {From: append(append([]models.QuoteStatus{}, open...), models.QuoteExpired), To: models.QuoteRejected},
	ActionExpire:  {From: open, To: models.QuoteExpired},
	ActionConvert: {From: []models.QuoteStatus{models.QuoteAccepted}, To: models.QuoteConverted},
}, open...)
