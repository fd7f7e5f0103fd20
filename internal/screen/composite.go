package screen

import (
	"context"

	"github.com/veracampus/campushub/internal/backend"
)

// Composite describes an update that spans two backend records: the
// account record and a role-profile record (teacher and student screens).
// The form submits one flat payload; the controller splits it and issues
// two strictly sequential calls.
type Composite struct {
	// AccountPath returns the account-record path for an entity,
	// e.g. "/users/" + id.
	AccountPath func(id string) string

	// ProfilePath returns the role-profile path for an entity,
	// e.g. "/teachers/" + id + "/profile".
	ProfilePath func(id string) string

	// ProfileFields lists the payload keys that belong to the
	// role-profile record; every other key goes to the account record.
	ProfileFields []string

	// AccountFailed and ProfileFailed are the fallback notifications
	// naming the phase that failed. Empty falls back to the screen's
	// generic update-failed message.
	AccountFailed string
	ProfileFailed string
}

// split partitions a flat form payload into the account and profile
// sub-payloads.
func (cu Composite) split(payload map[string]any) (account, profile map[string]any) {
	account = make(map[string]any)
	profile = make(map[string]any)
	isProfile := make(map[string]bool, len(cu.ProfileFields))
	for _, f := range cu.ProfileFields {
		isProfile[f] = true
	}
	for k, v := range payload {
		if isProfile[k] {
			profile[k] = v
		} else {
			account[k] = v
		}
	}
	return account, profile
}

// UpdateComposite updates an entity whose attributes are split across an
// account record and a role-profile record. The account call always runs
// first; the profile call runs only when the profile sub-payload is
// non-empty, and never starts before the account call resolves. If the
// account call fails the profile call is not attempted. If the account
// call succeeds and the profile call fails, the account change has
// already persisted server-side; the operation is reported as failed and
// no rollback is attempted.
func (c *Controller[T]) UpdateComposite(ctx context.Context, cu Composite, id string, payload map[string]any) error {
	if err := c.begin(); err != nil {
		return err
	}
	defer c.end()

	account, profile := cu.split(payload)

	accountFallback := cu.AccountFailed
	if accountFallback == "" {
		accountFallback = c.opts.Messages.UpdateFailed
	}
	profileFallback := cu.ProfileFailed
	if profileFallback == "" {
		profileFallback = c.opts.Messages.UpdateFailed
	}

	if _, err := c.opts.Client.Patch(ctx, cu.AccountPath(id), account); err != nil {
		c.notifyError(backend.UserMessage(err, accountFallback))
		return err
	}

	if len(profile) > 0 {
		if _, err := c.opts.Client.Patch(ctx, cu.ProfilePath(id), profile); err != nil {
			c.notifyError(backend.UserMessage(err, profileFallback))
			return err
		}
	}

	c.finishMutation(c.opts.Messages.Updated)
	return nil
}
