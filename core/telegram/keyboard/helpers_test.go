package keyboard

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReplyButtons(t *testing.T) {
	rm := ReplyButtons([]string{"🚗 Car for Sale", "🏢 Car for Rental"}, nil, []string{"📞 Contact Brokers"})
	require.NotNil(t, rm)
	require.True(t, rm.ResizeKeyboard)
	require.Len(t, rm.ReplyKeyboard, 2)
	require.Equal(t, "🏢 Car for Rental", rm.ReplyKeyboard[0][1].Text)
	require.Equal(t, "📞 Contact Brokers", rm.ReplyKeyboard[1][0].Text)

	require.Nil(t, ReplyButtons())
}

func TestMarkup(t *testing.T) {
	require.NotNil(t, Markup([][]string{{"a"}}, true).ReplyKeyboard)
	require.True(t, Markup(nil, true).RemoveKeyboard)
	require.Nil(t, Markup(nil, false))
	require.True(t, ForceReply().ForceReply)
}
