package middleware

import (
	"context"
	"errors"
	"slices"
)

const (
	RoleAdmin     = "admin"
	RoleOrganizer = "organizer"
	RolePlayer    = "player"
)

var ErrNoClaims = errors.New("user claims not found in context")

func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, userContextKey, claims)
}

func GetClaimsFromContext(ctx context.Context) (*Claims, error) {
	claims, ok := ctx.Value(userContextKey).(*Claims)
	if !ok || claims == nil {
		return nil, ErrNoClaims
	}
	return claims, nil
}

func GetUserIDFromContext(ctx context.Context) (string, error) {
	claims, err := GetClaimsFromContext(ctx)
	if err != nil {
		return "", err
	}
	return claims.UserID, nil
}

func GetUserRoleFromContext(ctx context.Context) (string, error) {
	claims, err := GetClaimsFromContext(ctx)
	if err != nil {
		return "", err
	}
	switch claims.Role {
	case RoleAdmin, RoleOrganizer, RolePlayer:
		return claims.Role, nil
	}
	return "", errors.New("invalid role value in claims")
}

// CanActForTeam reports whether the caller captains teamID or runs tournaments.
func CanActForTeam(ctx context.Context, teamID string) bool {
	claims, err := GetClaimsFromContext(ctx)
	if err != nil {
		return false
	}
	if claims.Role == RoleAdmin || claims.Role == RoleOrganizer {
		return true
	}
	return slices.Contains(claims.CaptainOf, teamID)
}
