package rest

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/bwmarrin/discordgo"
)

func restErr(status, code int) error {
	return &discordgo.RESTError{
		Response: &http.Response{StatusCode: status},
		Message:  &discordgo.APIErrorMessage{Code: code, Message: "nope"},
	}
}

func TestIsPermissionError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"missing permissions code", restErr(http.StatusForbidden, discordgo.ErrCodeMissingPermissions), true},
		{"missing access code", restErr(http.StatusForbidden, discordgo.ErrCodeMissingAccess), true},
		{"forbidden status", restErr(http.StatusForbidden, 0), true},
		{"wrapped", fmt.Errorf("deleting: %w", restErr(http.StatusForbidden, discordgo.ErrCodeMissingPermissions)), true},
		{"pre-check", &MissingPermissionError{Permission: discordgo.PermissionManageRoles}, true},
		{"not found", restErr(http.StatusNotFound, discordgo.ErrCodeUnknownMessage), false},
		{"plain", fmt.Errorf("timeout"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsPermissionError(tt.err); got != tt.want {
				t.Errorf("IsPermissionError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestPermissionName(t *testing.T) {
	if got := PermissionName(discordgo.PermissionManageMessages); got != "Manage Messages" {
		t.Errorf("PermissionName() = %q", got)
	}
	err := &MissingPermissionError{Permission: discordgo.PermissionManageRoles}
	if err.Error() != "missing permission: Manage Roles" {
		t.Errorf("Error() = %q", err.Error())
	}
}

type permClient struct {
	Client
	perms int64
}

func (c permClient) Permissions(string, string) (int64, error) { return c.perms, nil }

func TestHasPermission(t *testing.T) {
	tests := []struct {
		name  string
		perms int64
		want  bool
	}{
		{"has it", discordgo.PermissionManageMessages | discordgo.PermissionSendMessages, true},
		{"admin", discordgo.PermissionAdministrator, true},
		{"lacks it", discordgo.PermissionSendMessages, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := HasPermission(permClient{perms: tt.perms}, "u", "c", discordgo.PermissionManageMessages)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("HasPermission() = %v, want %v", got, tt.want)
			}
		})
	}
}
