package secrets

import (
	"errors"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	// KeyringService groups the monitor's secrets in the OS keychain.
	KeyringService = "dou-job-monitor"

	botTokenAccount = "telegram-bot-token"
)

var ErrTokenNotFound = errors.New("telegram bot token not found (set it in keychain or via env)")

func GetBotToken() (string, error) {
	token, err := keyring.Get(KeyringService, botTokenAccount)
	if err == nil && strings.TrimSpace(token) != "" {
		return strings.TrimSpace(token), nil
	}
	return "", ErrTokenNotFound
}

func SetBotToken(token string) error {
	if strings.TrimSpace(token) == "" {
		return errors.New("token is empty")
	}
	return keyring.Set(KeyringService, botTokenAccount, strings.TrimSpace(token))
}

func DeleteBotToken() error {
	return keyring.Delete(KeyringService, botTokenAccount)
}
