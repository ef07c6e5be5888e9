package bancho

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osukon/banchod/internal/bancho/packet"
)

func loginBody(username string) []byte {
	return []byte(strings.Join([]string{
		username,
		"0123456789abcdef0123456789abcdef",
		"b20220330.2|2|1|pathmd5:adapters.here.:adaptersmd5:uninstmd5:diskmd5:|1",
	}, "\n"))
}

func TestParseLoginData(t *testing.T) {
	data, err := ParseLoginData(loginBody("cool player"))
	require.NoError(t, err)

	assert.Equal(t, "cool player", data.Username)
	assert.Equal(t, "0123456789abcdef0123456789abcdef", data.PwMD5)
	assert.Equal(t, "b20220330.2", data.OsuVersion)
	assert.Equal(t, 2, data.UTCOffset)
	assert.True(t, data.DisplayCity)
	assert.True(t, data.PMPrivate)
	assert.Equal(t, "pathmd5", data.OsuPathMD5)
	assert.Equal(t, "adapters.here.", data.AdaptersStr)
	assert.Equal(t, "adaptersmd5", data.AdaptersMD5)
	assert.Equal(t, "uninstmd5", data.UninstallMD5)
	assert.Equal(t, "diskmd5", data.DiskSignatureMD5)
}

func TestParseLoginData_Malformed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"too few lines", "user\npass"},
		{"too few client info fields", "user\npass\nb20220330|2|1"},
		{"bad utc offset", "user\npass\nb20220330|x|1|a:b:c:d:e:|1"},
		{"wrong hash count", "user\npass\nb20220330|2|1|a:b:c:|1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseLoginData([]byte(tt.body))
			assert.Error(t, err)
		})
	}
}

func TestParseOsuVersion(t *testing.T) {
	tests := []struct {
		in       string
		date     string
		revision int
		stream   string
		wantErr  bool
	}{
		{in: "b20220330", date: "2022-03-30", stream: "stable"},
		{in: "b20220330.2", date: "2022-03-30", revision: 2, stream: "stable"},
		{in: "b20200201.2cuttingedge", date: "2020-02-01", revision: 2, stream: "cuttingedge"},
		{in: "b20220330tourney", date: "2022-03-30", stream: "tourney"},
		{in: "b2022033", wantErr: true},
		{in: "20220330", wantErr: true},
		{in: "b20220330.2nightly", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			v, err := ParseOsuVersion(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.date, v.Date.Format(time.DateOnly))
			assert.Equal(t, tt.revision, v.Revision)
			assert.Equal(t, tt.stream, v.Stream)
		})
	}
}

func TestLoginFailure(t *testing.T) {
	res := loginFailure(tokenLoginFailed, -1, "nope")
	assert.Equal(t, "login-failed", res.Token)
	assert.NotEmpty(t, res.Body)
}

func TestLogin_MalformedBodyToken(t *testing.T) {
	s := newMPServer()
	res := s.Login(context.Background(), []byte("user\npass"), "127.0.0.1")
	assert.Equal(t, "invalid-request", res.Token)
}

func TestLogin_OldClientToken(t *testing.T) {
	s := newMPServer()
	// The stock config refuses clients older than the cutoff; b20220330 is
	// well past it.
	require.True(t, s.cfg.DisallowOldClients)

	res := s.Login(context.Background(), loginBody("player"), "127.0.0.1")
	assert.Equal(t, "client-too-old", res.Token)

	// The update-forced frame has to precede the user id so the client
	// launches its updater instead of showing a bare error.
	r := packet.NewReader(res.Body)
	h, err := r.ReadHeader()
	require.NoError(t, err)
	assert.Equal(t, packet.ServerVersionUpdateForced, packet.ServerPacketID(h.ID))
	require.NoError(t, r.Skip(int(h.Length)))
	h, err = r.ReadHeader()
	require.NoError(t, err)
	assert.Equal(t, packet.ServerUserID, packet.ServerPacketID(h.ID))
}

func TestLogin_EmptyAdaptersToken(t *testing.T) {
	s := newMPServer()
	s.cfg.DisallowOldClients = false

	body := []byte("user\npass\nb20220330|2|1|pathmd5::adaptersmd5:uninstmd5:diskmd5:|1")
	res := s.Login(context.Background(), body, "127.0.0.1")
	assert.Equal(t, "empty-adapters", res.Token)
}

func TestLogin_AlreadyOnlineToken(t *testing.T) {
	s := newMPServer()
	s.cfg.DisallowOldClients = false

	existing := newTestSession(1001, "Alice", "tok-a")
	existing.SetLastRecvTime(time.Now())
	s.sessions.Register(existing)

	res := s.Login(context.Background(), loginBody("Alice"), "127.0.0.1")
	assert.Equal(t, "user-ghosted", res.Token)
	assert.Same(t, existing, s.sessions.GetByToken("tok-a"), "live session survives")
}
