package middleware

import (
	"slices"

	tele "gopkg.in/telebot.v4"
)

// AdminOptions defines how admin-only checks should behave.
type AdminOptions struct {
	AdminIDs []int64
	OnReject tele.HandlerFunc
}

// IsAdmin reports whether userID is listed in ids.
func IsAdmin(ids []int64, userID int64) bool {
	return userID != 0 && slices.Contains(ids, userID)
}

// AdminOnlyMiddleware lets only listed admins reach downstream handlers.
// With no admins configured every sender is rejected.
func AdminOnlyMiddleware(opts AdminOptions) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			var userID int64
			if u := c.Sender(); u != nil {
				userID = u.ID
			}
			if !IsAdmin(opts.AdminIDs, userID) {
				if opts.OnReject != nil {
					return opts.OnReject(c)
				}
				return nil
			}
			return next(c)
		}
	}
}
