package login_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/leapcode/leapsrp/internal/auth"
	"github.com/leapcode/leapsrp/internal/login"
	"github.com/leapcode/leapsrp/pkg/protocol"
	"github.com/leapcode/leapsrp/pkg/srp"
)

const (
	testUser     = "alice"
	testPassword = "password123"
	testCarrier  = "_session_id"
	testToken    = "token-123"
)

// provider answers the exchanges with a real reference server.
type provider struct {
	t      *testing.T
	params *srp.Parameters
	record *auth.Record
	server *auth.Server
	seenA  []string
}

func newProvider(t *testing.T, params *srp.Parameters) *provider {
	t.Helper()
	record, err := auth.NewRecord(params, testUser, testPassword)
	require.NoError(t, err)
	return &provider{t: t, params: params, record: record}
}

func (p *provider) init(_ context.Context, _, hexA string) (*protocol.SRPInitResponse, error) {
	p.seenA = append(p.seenA, hexA)
	A, err := protocol.DecodeHex(hexA)
	require.NoError(p.t, err)

	p.server = auth.NewServer(p.params, p.record)
	salt, B, err := p.server.Init(A)
	require.NoError(p.t, err)
	return &protocol.SRPInitResponse{Salt: protocol.EncodeHex(salt), B: protocol.EncodeHex(B)}, nil
}

func (p *provider) verify(_ context.Context, _, hexM1 string) (*protocol.SRPVerifyResponse, error) {
	M1, err := protocol.DecodeHexPadded(hexM1, p.params.DigestSize())
	require.NoError(p.t, err)

	M2, err := p.server.Verify(M1)
	if err != nil {
		return &protocol.SRPVerifyResponse{}, nil
	}
	return &protocol.SRPVerifyResponse{
		M2:                  protocol.EncodeHex(M2),
		SessionToken:        testToken,
		SessionTokenCarrier: testCarrier,
	}, nil
}

func newAuthenticator(ex login.Exchanger, params *srp.Parameters, opts ...login.Option) *login.Authenticator {
	opts = append([]login.Option{login.WithBackoff(0, 0)}, opts...)
	return login.New(ex, params, nil, opts...)
}

func TestLogin_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	params := srp.LEAP1024()
	p := newProvider(t, params)

	ex := login.NewMockExchanger(ctrl)
	ex.EXPECT().SRPInit(gomock.Any(), testUser, gomock.Any()).DoAndReturn(p.init)
	ex.EXPECT().SRPVerify(gomock.Any(), testUser, gomock.Any()).DoAndReturn(p.verify)

	result, err := newAuthenticator(ex, params).Login(context.Background(), testUser, testPassword)
	require.NoError(t, err)

	assert.Equal(t, testUser, result.Username)
	assert.Equal(t, testToken, result.SessionToken)
	assert.Equal(t, testCarrier, result.SessionTokenCarrier)
	assert.Equal(t, p.server.SessionKey(), result.SessionKey)
	assert.Equal(t, 1, result.Attempts)
	assert.Len(t, result.AttemptID, 36)
}

func TestLogin_WrongPassword(t *testing.T) {
	ctrl := gomock.NewController(t)
	params := srp.LEAP1024()
	p := newProvider(t, params)

	ex := login.NewMockExchanger(ctrl)
	ex.EXPECT().SRPInit(gomock.Any(), testUser, gomock.Any()).DoAndReturn(p.init)
	ex.EXPECT().SRPVerify(gomock.Any(), testUser, gomock.Any()).DoAndReturn(p.verify)

	_, err := newAuthenticator(ex, params).Login(context.Background(), testUser, "not-the-password")
	require.Error(t, err)
	assert.True(t, protocol.IsCode(err, protocol.ErrCodeAuthenticationFailed))
}

func TestLogin_InitRejected(t *testing.T) {
	ctrl := gomock.NewController(t)

	ex := login.NewMockExchanger(ctrl)
	ex.EXPECT().SRPInit(gomock.Any(), testUser, gomock.Any()).Return(&protocol.SRPInitResponse{}, nil)

	_, err := newAuthenticator(ex, srp.LEAP1024()).Login(context.Background(), testUser, testPassword)
	require.Error(t, err)
	assert.True(t, protocol.IsCode(err, protocol.ErrCodeAuthenticationFailed))
	assert.False(t, protocol.IsRetryable(err))
}

func TestLogin_ServerProofMismatch(t *testing.T) {
	ctrl := gomock.NewController(t)
	params := srp.LEAP1024()
	p := newProvider(t, params)

	ex := login.NewMockExchanger(ctrl)
	ex.EXPECT().SRPInit(gomock.Any(), testUser, gomock.Any()).DoAndReturn(p.init)
	ex.EXPECT().SRPVerify(gomock.Any(), testUser, gomock.Any()).DoAndReturn(
		func(ctx context.Context, username, hexM1 string) (*protocol.SRPVerifyResponse, error) {
			resp, err := p.verify(ctx, username, hexM1)
			M2, _ := protocol.DecodeHexPadded(resp.M2, params.DigestSize())
			M2[len(M2)-1] ^= 0x01
			resp.M2 = protocol.EncodeHex(M2)
			return resp, err
		})

	_, err := newAuthenticator(ex, params).Login(context.Background(), testUser, testPassword)
	require.Error(t, err)
	assert.True(t, protocol.IsCode(err, protocol.ErrCodeAuthenticationFailed))
}

func TestLogin_MissingSessionCookie(t *testing.T) {
	ctrl := gomock.NewController(t)
	params := srp.LEAP1024()
	p := newProvider(t, params)

	ex := login.NewMockExchanger(ctrl)
	ex.EXPECT().SRPInit(gomock.Any(), testUser, gomock.Any()).DoAndReturn(p.init)
	ex.EXPECT().SRPVerify(gomock.Any(), testUser, gomock.Any()).DoAndReturn(
		func(ctx context.Context, username, hexM1 string) (*protocol.SRPVerifyResponse, error) {
			resp, err := p.verify(ctx, username, hexM1)
			resp.SessionToken, resp.SessionTokenCarrier = "", ""
			return resp, err
		})

	_, err := newAuthenticator(ex, params).Login(context.Background(), testUser, testPassword)
	require.Error(t, err)
	assert.True(t, protocol.IsCode(err, protocol.ErrCodeSessionInvalid))
}

func TestLogin_MalformedInitResponse(t *testing.T) {
	tests := []struct {
		name string
		resp *protocol.SRPInitResponse
		code protocol.ErrorCode
	}{
		{
			name: "salt not hex",
			resp: &protocol.SRPInitResponse{Salt: "zz", B: "1234"},
			code: protocol.ErrCodeProtocolViolation,
		},
		{
			name: "B missing",
			resp: &protocol.SRPInitResponse{Salt: "c0ffee"},
			code: protocol.ErrCodeProtocolViolation,
		},
		{
			name: "B equals N",
			resp: &protocol.SRPInitResponse{Salt: "c0ffee", B: srp.LEAP1024().N.Text(16)},
			code: protocol.ErrCodeAuthenticationFailed,
		},
		{
			name: "B is zero",
			resp: &protocol.SRPInitResponse{Salt: "c0ffee", B: "0"},
			code: protocol.ErrCodeAuthenticationFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			ex := login.NewMockExchanger(ctrl)
			ex.EXPECT().SRPInit(gomock.Any(), testUser, gomock.Any()).Return(tt.resp, nil)

			_, err := newAuthenticator(ex, srp.LEAP1024()).Login(context.Background(), testUser, testPassword)
			require.Error(t, err)
			assert.True(t, protocol.IsCode(err, tt.code), "got %v", err)
		})
	}
}

func TestLogin_RetriesTransportFailureWithNewSession(t *testing.T) {
	ctrl := gomock.NewController(t)
	params := srp.LEAP1024()
	p := newProvider(t, params)

	var firstA string
	ex := login.NewMockExchanger(ctrl)
	gomock.InOrder(
		ex.EXPECT().SRPInit(gomock.Any(), testUser, gomock.Any()).DoAndReturn(
			func(_ context.Context, _, hexA string) (*protocol.SRPInitResponse, error) {
				firstA = hexA
				return nil, protocol.NewTransportFailureError("connection refused", true)
			}),
		ex.EXPECT().SRPInit(gomock.Any(), testUser, gomock.Any()).DoAndReturn(p.init),
		ex.EXPECT().SRPVerify(gomock.Any(), testUser, gomock.Any()).DoAndReturn(p.verify),
	)

	result, err := newAuthenticator(ex, params).Login(context.Background(), testUser, testPassword)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Attempts)
	require.Len(t, p.seenA, 1)
	assert.NotEqual(t, firstA, p.seenA[0], "a retry must use a fresh ephemeral")
}

func TestLogin_RetriesExhausted(t *testing.T) {
	ctrl := gomock.NewController(t)

	ex := login.NewMockExchanger(ctrl)
	ex.EXPECT().SRPInit(gomock.Any(), testUser, gomock.Any()).
		Return(nil, protocol.NewTransportFailureError("timeout", true)).
		Times(3)

	_, err := newAuthenticator(ex, srp.LEAP1024(), login.WithRetries(2)).
		Login(context.Background(), testUser, testPassword)
	require.Error(t, err)
	assert.True(t, protocol.IsCode(err, protocol.ErrCodeTransportFailure))
}

func TestLogin_NonRetryableFailure(t *testing.T) {
	ctrl := gomock.NewController(t)

	ex := login.NewMockExchanger(ctrl)
	ex.EXPECT().SRPInit(gomock.Any(), testUser, gomock.Any()).
		Return(nil, protocol.NewTLSError("certificate fingerprint mismatch")).
		Times(1)

	_, err := newAuthenticator(ex, srp.LEAP1024()).Login(context.Background(), testUser, testPassword)
	require.Error(t, err)
	assert.True(t, protocol.IsCode(err, protocol.ErrCodeTLSError))
}

func TestLogin_PlainErrorIsRetryableTransportFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	params := srp.LEAP1024()
	p := newProvider(t, params)

	ex := login.NewMockExchanger(ctrl)
	gomock.InOrder(
		ex.EXPECT().SRPInit(gomock.Any(), testUser, gomock.Any()).DoAndReturn(p.init),
		ex.EXPECT().SRPVerify(gomock.Any(), testUser, gomock.Any()).Return(nil, errors.New("connection reset by peer")),
		ex.EXPECT().SRPInit(gomock.Any(), testUser, gomock.Any()).DoAndReturn(p.init),
		ex.EXPECT().SRPVerify(gomock.Any(), testUser, gomock.Any()).DoAndReturn(p.verify),
	)

	result, err := newAuthenticator(ex, params).Login(context.Background(), testUser, testPassword)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Attempts)
}

func TestLogin_ContextCancelledDuringBackoff(t *testing.T) {
	ctrl := gomock.NewController(t)
	ctx, cancel := context.WithCancel(context.Background())

	ex := login.NewMockExchanger(ctrl)
	ex.EXPECT().SRPInit(gomock.Any(), testUser, gomock.Any()).DoAndReturn(
		func(context.Context, string, string) (*protocol.SRPInitResponse, error) {
			cancel()
			return nil, protocol.NewTransportFailureError("timeout", true)
		})

	a := login.New(ex, srp.LEAP1024(), nil, login.WithBackoff(time.Hour, time.Hour))
	_, err := a.Login(ctx, testUser, testPassword)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLogin_ConfigurationError(t *testing.T) {
	ctrl := gomock.NewController(t)
	ex := login.NewMockExchanger(ctrl)

	_, err := newAuthenticator(ex, srp.LEAP1024()).Login(context.Background(), "", testPassword)
	require.Error(t, err)
	assert.True(t, protocol.IsCode(err, protocol.ErrCodeConfigurationError))
}

func TestLogin_SHA3Group(t *testing.T) {
	ctrl := gomock.NewController(t)
	params, err := srp.NewParameters(srp.LEAP1024().N.Text(16), "2", "", srp.SHA3_256)
	require.NoError(t, err)
	p := newProvider(t, params)

	ex := login.NewMockExchanger(ctrl)
	ex.EXPECT().SRPInit(gomock.Any(), testUser, gomock.Any()).DoAndReturn(p.init)
	ex.EXPECT().SRPVerify(gomock.Any(), testUser, gomock.Any()).DoAndReturn(p.verify)

	_, err = newAuthenticator(ex, params).Login(context.Background(), testUser, testPassword)
	require.NoError(t, err)
}
