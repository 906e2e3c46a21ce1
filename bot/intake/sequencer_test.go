package intake

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/carhub/bot/listing"
)

func TestTransitionTableIsExhaustive(t *testing.T) {
	want := map[listing.Kind][]State{
		listing.KindSale: {
			StateMake, StateModel, StateYear, StateColor, StatePlateCode, StatePlatePartial,
			StatePlateRegion, StatePrice, StatePhone, StateCondition, StatePhotos, StateDone,
		},
		listing.KindRental: {
			StateMake, StateModel, StateYear, StatePlateCode, StatePrice, StateAdvancePayment,
			StateWarranty, StatePurpose, StateRegion, StatePhone, StateCondition, StatePhotos, StateDone,
		},
	}
	total := 0
	for kind, path := range want {
		if diff := cmp.Diff(path, Path(kind)); diff != "" {
			t.Fatalf("%s path mismatch (-want +got):\n%s", kind, diff)
		}
		total += len(path) - 1
	}
	require.Len(t, Transitions, total, "table must hold exactly the two paths")

	for tr := range Transitions {
		if tr.From == StatePhotos {
			continue
		}
		_, ok := fieldRules[tr.From]
		require.True(t, ok, "state %s has no answer rule", tr.From)
	}
}

// walk drives a session through the path with valid inputs and returns
// the prompt states in the order they were asked.
func walk(t *testing.T, seq *Sequencer, kind listing.Kind, answers map[State]string) ([]State, Outcome) {
	t.Helper()
	sess, p := seq.Start(1, kind)
	asked := []State{p.State}
	for {
		ans, ok := answers[sess.State]
		require.True(t, ok, "no answer for %s", sess.State)
		out, err := seq.Advance(sess, Input{Text: ans})
		require.NoError(t, err)
		require.NotEqual(t, ActionReject, out.Action, "rejected %q at %s", ans, sess.State)
		if out.Action != ActionAsk {
			return asked, out
		}
		sess = out.Session
		asked = append(asked, out.Prompt.State)
	}
}

var saleAnswers = map[State]string{
	StateMake: "Toyota", StateModel: "Vitz", StateYear: "2012", StateColor: "White",
	StatePlateCode: "2", StatePlatePartial: "B34", StatePlateRegion: "AA",
	StatePrice: "950,000", StatePhone: "0911564697", StateCondition: "Excellent",
	StatePhotos: ButtonSkip,
}

var rentalAnswers = map[State]string{
	StateMake: "Suzuki", StateModel: "Dzire", StateYear: "2020", StatePlateCode: "3 - Commercial",
	StatePrice: "3000", StateAdvancePayment: "Two months", StateWarranty: "No",
	StatePurpose: "Tour", StateRegion: "Bole", StatePhone: "0900000000",
	StateCondition: "Good", StatePhotos: "done",
}

func TestSalePromptOrder(t *testing.T) {
	asked, out := walk(t, NewSequencer(Options{}), listing.KindSale, saleAnswers)
	want := []State{
		StateMake, StateModel, StateYear, StateColor, StatePlateCode, StatePlatePartial,
		StatePlateRegion, StatePrice, StatePhone, StateCondition, StatePhotos,
	}
	if diff := cmp.Diff(want, asked); diff != "" {
		t.Fatalf("prompt order (-want +got):\n%s", diff)
	}
	require.Equal(t, ActionFinalize, out.Action)
	require.Equal(t, StateDone, out.Session.State)
	require.Equal(t, "B34xxx", out.Session.Draft.PlateMasked)
	require.Equal(t, "AA", out.Session.Draft.PlateRegion)
}

func TestRentalPromptOrder(t *testing.T) {
	asked, out := walk(t, NewSequencer(Options{}), listing.KindRental, rentalAnswers)
	want := []State{
		StateMake, StateModel, StateYear, StatePlateCode, StatePrice, StateAdvancePayment,
		StateWarranty, StatePurpose, StateRegion, StatePhone, StateCondition, StatePhotos,
	}
	if diff := cmp.Diff(want, asked); diff != "" {
		t.Fatalf("prompt order (-want +got):\n%s", diff)
	}
	d := out.Session.Draft
	require.Equal(t, "3", d.PlateCode)
	require.Equal(t, "Two months", d.AdvancePayment)
	require.Equal(t, "Bole", d.Region)
	require.Empty(t, d.Color)
}

func TestRentalPriceWording(t *testing.T) {
	seq := NewSequencer(Options{})
	sess := Session{ID: 1, State: StatePlateCode, Draft: listing.Draft{Kind: listing.KindRental}}
	out, err := seq.Advance(sess, Input{Text: "1"})
	require.NoError(t, err)
	require.Equal(t, StatePrice, out.Prompt.State)
	require.Contains(t, out.Prompt.Text, "Daily Price")
}

func TestInvalidPhoneKeepsState(t *testing.T) {
	seq := NewSequencer(Options{})
	sess := Session{ID: 1, State: StatePhone, Draft: listing.Draft{Kind: listing.KindSale, Make: "Toyota"}}
	for _, bad := range []string{"12345", "0811564697", " 0911564697"} {
		out, err := seq.Advance(sess, Input{Text: bad})
		require.NoError(t, err)
		require.Equal(t, ActionReject, out.Action)
		require.Equal(t, sess, out.Session)
		require.Equal(t, StatePhone, out.Prompt.State)
		require.Equal(t, CodePhone, out.Rejected.Code)
	}
}

func TestRejections(t *testing.T) {
	seq := NewSequencer(Options{})
	cases := []struct {
		state State
		kind  listing.Kind
		in    Input
		code  Code
	}{
		{StatePlateCode, listing.KindSale, Input{Text: "4"}, CodePlateCode},
		{StatePlatePartial, listing.KindSale, Input{Text: "ABCD"}, CodePlateFragment},
		{StateAdvancePayment, listing.KindRental, Input{Text: "one month"}, CodeOption},
		{StateWarranty, listing.KindRental, Input{Text: "Maybe"}, CodeOption},
		{StatePurpose, listing.KindRental, Input{Text: "Racing"}, CodeOption},
		{StateMake, listing.KindSale, Input{PhotoID: "f"}, CodeExpectText},
		{StatePhotos, listing.KindSale, Input{Text: "nice car"}, CodeExpectPhoto},
	}
	for _, tc := range cases {
		sess := Session{ID: 9, State: tc.state, Draft: listing.Draft{Kind: tc.kind}}
		out, err := seq.Advance(sess, tc.in)
		require.NoError(t, err)
		require.Equal(t, ActionReject, out.Action, tc.state)
		require.Equal(t, tc.code, out.Rejected.Code, tc.state)
		require.Equal(t, sess, out.Session, tc.state)
		require.NotEmpty(t, out.Rejected.Notice())
	}
}

func TestOptionNoticeListsChoices(t *testing.T) {
	out, err := NewSequencer(Options{}).Advance(
		Session{State: StateWarranty, Draft: listing.Draft{Kind: listing.KindRental}},
		Input{Text: "Sure"},
	)
	require.NoError(t, err)
	require.Contains(t, out.Rejected.Notice(), "Yes, No")
}

func TestSixthPhotoRejected(t *testing.T) {
	seq := NewSequencer(Options{})
	sess := Session{ID: 1, State: StatePhotos, Draft: listing.Draft{Kind: listing.KindSale}}
	for i := 1; i <= listing.MaxPhotos; i++ {
		out, err := seq.Advance(sess, Input{PhotoID: "p"})
		require.NoError(t, err)
		require.Equal(t, ActionAsk, out.Action)
		require.Len(t, out.Session.Draft.Photos, i)
		require.Contains(t, out.Prompt.Text, "received")
		sess = out.Session
	}
	out, err := seq.Advance(sess, Input{PhotoID: "p6"})
	require.NoError(t, err)
	require.Equal(t, ActionReject, out.Action)
	require.Equal(t, CodePhotoLimit, out.Rejected.Code)
	require.Len(t, out.Session.Draft.Photos, listing.MaxPhotos)
	require.NotContains(t, out.Session.Draft.Photos, "p6")
}

func TestFinishSignals(t *testing.T) {
	seq := NewSequencer(Options{})
	for _, sig := range []string{ButtonDone, ButtonSkip, "DONE", " skip ", "/done", "/skip"} {
		sess := Session{State: StatePhotos, Draft: listing.Draft{Kind: listing.KindRental}}
		out, err := seq.Advance(sess, Input{Text: sig})
		require.NoError(t, err)
		require.Equal(t, ActionFinalize, out.Action, sig)
	}
}

func TestConfirmStep(t *testing.T) {
	seq := NewSequencer(Options{Confirm: true})
	sess := Session{ID: 3, State: StatePhotos, Draft: listing.Draft{Kind: listing.KindSale, Make: "Kia", Price: "1"}}

	out, err := seq.Advance(sess, Input{Text: ButtonDone})
	require.NoError(t, err)
	require.Equal(t, ActionAsk, out.Action)
	require.Equal(t, StateConfirm, out.Session.State)
	require.Contains(t, out.Prompt.Text, "Review Your Ad")
	review := out.Session

	out, err = seq.Advance(review, Input{Text: "maybe"})
	require.NoError(t, err)
	require.Equal(t, ActionReject, out.Action)

	out, err = seq.Advance(review, Input{Text: ButtonEdit})
	require.NoError(t, err)
	require.Equal(t, ActionAsk, out.Action)
	require.Equal(t, StateMake, out.Session.State)
	require.Equal(t, listing.KindSale, out.Session.Draft.Kind)
	require.Empty(t, out.Session.Draft.Make)

	out, err = seq.Advance(review, Input{Text: ButtonCancel})
	require.NoError(t, err)
	require.Equal(t, ActionCancel, out.Action)

	out, err = seq.Advance(review, Input{Text: ButtonConfirm})
	require.NoError(t, err)
	require.Equal(t, ActionFinalize, out.Action)
	require.Equal(t, StateDone, out.Session.State)
}

func TestAdvanceErrors(t *testing.T) {
	seq := NewSequencer(Options{})
	_, err := seq.Advance(Session{State: StateDone, Draft: listing.Draft{Kind: listing.KindSale}}, Input{Text: "x"})
	require.ErrorIs(t, err, ErrSessionComplete)

	_, err = seq.Advance(Session{State: "bogus", Draft: listing.Draft{Kind: listing.KindSale}}, Input{Text: "x"})
	require.ErrorIs(t, err, ErrUnknownState)

	_, err = seq.Advance(Session{State: StateMake}, Input{Text: "x"})
	require.Error(t, err)

	var verr *ValidationError
	require.False(t, errors.As(err, &verr))
}

func TestSaleOnlyStateOnRentalPath(t *testing.T) {
	_, err := NewSequencer(Options{}).Advance(
		Session{State: StateColor, Draft: listing.Draft{Kind: listing.KindRental}},
		Input{Text: "Red"},
	)
	require.ErrorIs(t, err, ErrUnknownState)
}
