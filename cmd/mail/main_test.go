package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/evolution-lab/backend/internal/domain"
)

func TestBuildMessageRejectsUnknownType(t *testing.T) {
	_, err := buildMessage("lab@example.com", domain.MailMessage{Type: "reset_password", To: "user@example.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reset_password")
}

func TestBuildMessageRejectsBadRecipient(t *testing.T) {
	_, err := buildMessage("lab@example.com", domain.MailMessage{Type: "run_finished", To: "not an address"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "收件人")
}

func TestMailTemplatesExist(t *testing.T) {
	for _, typ := range []string{"create_user", "run_finished"} {
		assert.Contains(t, mailTemplates, typ)
	}
}
