// Package invites resolves Discord invite codes to the guild they lead to.
package invites

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"
)

var ErrNoGuild = errors.New("invite does not point at a guild")

// Resolver maps an invite code to a guild id.
type Resolver interface {
	ResolveInvite(ctx context.Context, code string) (string, error)
}

// SessionResolver looks invites up through the Discord REST API.
type SessionResolver struct {
	session *discordgo.Session
}

func NewSessionResolver(session *discordgo.Session) *SessionResolver {
	return &SessionResolver{session: session}
}

func (r *SessionResolver) ResolveInvite(ctx context.Context, code string) (string, error) {
	invite, err := r.session.Invite(code, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("resolve invite %s: %w", code, err)
	}
	if invite == nil || invite.Guild == nil || invite.Guild.ID == "" {
		return "", ErrNoGuild
	}
	return invite.Guild.ID, nil
}
