package provider

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pquerna/otp/totp"
	"go.uber.org/zap"

	"github.com/rxtech-lab/candle-downloader/pkg/errors"
)

type loginRequest struct {
	ClientCode string `json:"clientcode"`
	Password   string `json:"password"`
	TOTP       string `json:"totp"`
}

type loginData struct {
	JWTToken     string `json:"jwtToken"`
	RefreshToken string `json:"refreshToken"`
	FeedToken    string `json:"feedToken"`
}

// Login exchanges the configured credentials and a fresh TOTP code for a session.
func (c *SmartAPIClient) Login(ctx context.Context) (*Session, error) {
	c.log.Info("LOGGING IN", zap.String("client_code", c.config.ClientCode))

	code, err := totp.GenerateCode(c.config.TOTPSecret, c.now())
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeLoginFailed, "failed to generate TOTP code", err)
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(loginRequest{
			ClientCode: c.config.ClientCode,
			Password:   c.config.Password,
			TOTP:       code,
		}).
		Post(loginPath)
	if err != nil {
		if isTimeout(err) {
			c.log.Error("TIMEOUT ERROR OCCURED", zap.String("stage", "login"), zap.Error(err))

			return nil, errors.Wrap(errors.ErrCodeTimeout, "login request timed out", err)
		}

		return nil, errors.Wrap(errors.ErrCodeLoginFailed, "login request failed", err)
	}

	env, err := decodeEnvelope(resp)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeLoginFailed, "failed to decode login response", err)
	}

	if !env.Status {
		c.log.Error("LOGIN FAILED", zap.String("errorcode", env.ErrorCode), zap.String("message", env.Message))

		return nil, errors.Newf(errors.ErrCodeLoginFailed, "login rejected: %s (errorcode %s)", env.Message, env.ErrorCode)
	}

	var data loginData
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil, errors.New(errors.ErrCodeLoginFailed, "login response carried no session data")
	}

	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, errors.Wrap(errors.ErrCodeLoginFailed, "failed to decode session data", err)
	}

	if data.JWTToken == "" || data.RefreshToken == "" {
		return nil, errors.New(errors.ErrCodeLoginFailed, "login response is missing tokens")
	}

	session := &Session{
		ClientCode:   c.config.ClientCode,
		JWTToken:     data.JWTToken,
		RefreshToken: data.RefreshToken,
		FeedToken:    data.FeedToken,
		CreatedAt:    c.now(),
	}

	c.log.Info("LOGGED IN SUCCESSFULLY", zap.String("client_code", session.ClientCode))

	return session, nil
}

func (s *Session) String() string {
	return fmt.Sprintf("Session{client=%s}", s.ClientCode)
}
