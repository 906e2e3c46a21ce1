// Package intake runs the listing questionnaire: a fixed sequence of
// questions per listing kind, validated one answer at a time.
package intake

import "github.com/m3rciful/carhub/bot/listing"

// State identifies the question a session is waiting for.
type State string

const (
	StateMake           State = "make"
	StateModel          State = "model"
	StateYear           State = "year"
	StateColor          State = "color"
	StatePlateCode      State = "plate_code"
	StatePlatePartial   State = "plate_partial"
	StatePlateRegion    State = "plate_region"
	StatePrice          State = "price"
	StateAdvancePayment State = "advance_payment"
	StateWarranty       State = "warranty"
	StatePurpose        State = "purpose"
	StateRegion         State = "region"
	StatePhone          State = "phone"
	StateCondition      State = "condition"
	StatePhotos         State = "photos"
	// StateConfirm is the optional review screen shown after photos.
	StateConfirm State = "confirm"
	// StateDone is the terminal marker; a session in this state is finalized.
	StateDone State = "done"
)

// Transition keys the ordering table.
type Transition struct {
	From State
	Kind listing.Kind
}

// Transitions is the complete question ordering. The only branch is the
// state following StateYear.
var Transitions = map[Transition]State{
	{StateMake, listing.KindSale}:         StateModel,
	{StateModel, listing.KindSale}:        StateYear,
	{StateYear, listing.KindSale}:         StateColor,
	{StateColor, listing.KindSale}:        StatePlateCode,
	{StatePlateCode, listing.KindSale}:    StatePlatePartial,
	{StatePlatePartial, listing.KindSale}: StatePlateRegion,
	{StatePlateRegion, listing.KindSale}:  StatePrice,
	{StatePrice, listing.KindSale}:        StatePhone,
	{StatePhone, listing.KindSale}:        StateCondition,
	{StateCondition, listing.KindSale}:    StatePhotos,
	{StatePhotos, listing.KindSale}:       StateDone,

	{StateMake, listing.KindRental}:           StateModel,
	{StateModel, listing.KindRental}:          StateYear,
	{StateYear, listing.KindRental}:           StatePlateCode,
	{StatePlateCode, listing.KindRental}:      StatePrice,
	{StatePrice, listing.KindRental}:          StateAdvancePayment,
	{StateAdvancePayment, listing.KindRental}: StateWarranty,
	{StateWarranty, listing.KindRental}:       StatePurpose,
	{StatePurpose, listing.KindRental}:        StateRegion,
	{StateRegion, listing.KindRental}:         StatePhone,
	{StatePhone, listing.KindRental}:          StateCondition,
	{StateCondition, listing.KindRental}:      StatePhotos,
	{StatePhotos, listing.KindRental}:         StateDone,
}

// Next returns the state following from on the kind's path.
func Next(from State, kind listing.Kind) (State, bool) {
	next, ok := Transitions[Transition{From: from, Kind: kind}]
	return next, ok
}

// Path returns every state visited by a fresh session of the given kind,
// ending with StateDone.
func Path(kind listing.Kind) []State {
	path := []State{StateMake}
	for cur := StateMake; cur != StateDone; {
		next, ok := Next(cur, kind)
		if !ok || len(path) > len(Transitions) {
			return nil
		}
		path = append(path, next)
		cur = next
	}
	return path
}

// Session is the per-user conversation: the pending question and the
// answers given so far.
type Session struct {
	ID    int64         `json:"id"`
	State State         `json:"state"`
	Draft listing.Draft `json:"draft"`
}
