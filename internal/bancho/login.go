package bancho

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/osukon/banchod/internal/bancho/serverpackets"
	"github.com/osukon/banchod/internal/constants"
	"github.com/osukon/banchod/internal/db"
	"github.com/osukon/banchod/internal/model"
)

// ProtocolVersion is the bancho protocol revision spoken by modern clients.
const ProtocolVersion = 19

var osuVersionRegex = regexp.MustCompile(
	`^b(?P<date>\d{8})(?:\.(?P<revision>\d))?(?P<stream>beta|cuttingedge|tourney|dev)?$`)

// LoginData is the parsed plaintext login request body.
type LoginData struct {
	Username         string
	PwMD5            string
	OsuVersion       string
	UTCOffset        int
	DisplayCity      bool
	PMPrivate        bool
	OsuPathMD5       string
	AdaptersStr      string
	AdaptersMD5      string
	UninstallMD5     string
	DiskSignatureMD5 string
}

// ParseLoginData splits the three-line login body and its client-hash
// blob into its parts.
func ParseLoginData(body []byte) (*LoginData, error) {
	lines := strings.Split(string(body), "\n")
	if len(lines) < 3 {
		return nil, fmt.Errorf("malformed login body: %d lines", len(lines))
	}

	clientInfo := strings.Split(lines[2], "|")
	if len(clientInfo) < 5 {
		return nil, fmt.Errorf("malformed client info: %d fields", len(clientInfo))
	}

	utcOffset, err := strconv.Atoi(clientInfo[1])
	if err != nil {
		return nil, fmt.Errorf("parsing utc offset: %w", err)
	}

	clientHashes := strings.Split(strings.TrimSuffix(clientInfo[3], ":"), ":")
	if len(clientHashes) != 5 {
		return nil, fmt.Errorf("malformed client hashes: %d fields", len(clientHashes))
	}

	return &LoginData{
		Username:         lines[0],
		PwMD5:            lines[1],
		OsuVersion:       clientInfo[0],
		UTCOffset:        utcOffset,
		DisplayCity:      clientInfo[2] == "1",
		PMPrivate:        clientInfo[4] == "1",
		OsuPathMD5:       clientHashes[0],
		AdaptersStr:      clientHashes[1],
		AdaptersMD5:      clientHashes[2],
		UninstallMD5:     clientHashes[3],
		DiskSignatureMD5: clientHashes[4],
	}, nil
}

// ParseOsuVersion parses a client version string like b20220330.2tourney.
func ParseOsuVersion(ver string) (*model.OsuVersion, error) {
	m := osuVersionRegex.FindStringSubmatch(ver)
	if m == nil {
		return nil, fmt.Errorf("invalid osu version %q", ver)
	}

	date, err := time.Parse("20060102", m[osuVersionRegex.SubexpIndex("date")])
	if err != nil {
		return nil, fmt.Errorf("parsing version date: %w", err)
	}

	revision := 0
	if rev := m[osuVersionRegex.SubexpIndex("revision")]; rev != "" {
		revision, _ = strconv.Atoi(rev)
	}

	stream := m[osuVersionRegex.SubexpIndex("stream")]
	if stream == "" {
		stream = "stable"
	}

	return &model.OsuVersion{Date: date, Revision: revision, Stream: stream}, nil
}

// LoginResult carries the response to an unauthenticated login request.
type LoginResult struct {
	// Token is the cho-token header value; a diagnostic string on failure.
	Token string
	Body  []byte
}

// Diagnostic cho-token values for rejected logins. The client surfaces
// these verbatim, so they double as support breadcrumbs.
const (
	tokenInvalidRequest = "invalid-request"
	tokenClientTooOld   = "client-too-old"
	tokenEmptyAdapters  = "empty-adapters"
	tokenUserGhosted    = "user-ghosted"
	tokenLoginFailed    = "login-failed"
	tokenContactStaff   = "contact-staff"
	tokenDenied         = "no"
)

func loginFailure(token string, code int32, notifications ...string) *LoginResult {
	var body []byte
	for _, n := range notifications {
		body = append(body, serverpackets.Notification(n)...)
	}
	body = append(body, serverpackets.UserID(code)...)
	return &LoginResult{Token: token, Body: body}
}

// Login runs the full authentication pipeline and, on success, registers
// a new session and returns its bootstrap payload.
func (s *Server) Login(ctx context.Context, body []byte, ip string) *LoginResult {
	loginTime := time.Now()

	data, err := ParseLoginData(body)
	if err != nil {
		s.log.Warn("malformed login request", "ip", ip, "err", err)
		s.metrics.LoginsTotal.WithLabelValues("malformed").Inc()
		return loginFailure(tokenInvalidRequest, serverpackets.LoginFailedAuth)
	}

	osuVer, err := ParseOsuVersion(data.OsuVersion)
	if err != nil {
		s.metrics.LoginsTotal.WithLabelValues("bad-version").Inc()
		return loginFailure(tokenInvalidRequest, serverpackets.LoginFailedAuth)
	}
	if s.cfg.DisallowOldClients && time.Since(osuVer.Date) > s.cfg.OldestClientAge {
		s.metrics.LoginsTotal.WithLabelValues("old-client").Inc()
		body := append(serverpackets.VersionUpdateForced(),
			serverpackets.UserID(serverpackets.LoginFailedOldClient)...)
		return &LoginResult{Token: tokenClientTooOld, Body: body}
	}

	runningUnderWine := data.AdaptersStr == "runningunderwine"
	adapters := strings.Split(strings.TrimSuffix(data.AdaptersStr, "."), ".")
	if !runningUnderWine && len(strings.Join(adapters, "")) == 0 {
		s.metrics.LoginsTotal.WithLabelValues("empty-adapters").Inc()
		return loginFailure(tokenEmptyAdapters, serverpackets.LoginFailedAuth,
			"Please restart your osu! and try again.")
	}

	tourneyClient := osuVer.Stream == "tourney"

	// Relogin while the old session is live: a quickly-abandoned session
	// (crashed client) is taken over, a fresh one blocks the login.
	if existing := s.sessions.GetByName(data.Username); existing != nil && !tourneyClient && !existing.TourneyClient {
		if loginTime.Sub(existing.LastRecvTime()) > s.cfg.GhostTimeout {
			s.EjectSession(ctx, existing, "ghosted")
		} else {
			s.metrics.LoginsTotal.WithLabelValues("already-online").Inc()
			return loginFailure(tokenUserGhosted, serverpackets.LoginFailedAuth,
				"User already logged in.")
		}
	}

	user, err := s.players.FetchBySafeName(ctx, model.MakeSafeName(data.Username))
	if err != nil {
		s.log.Error("fetching user at login", "username", data.Username, "err", err)
		s.metrics.LoginsTotal.WithLabelValues("error").Inc()
		return loginFailure(tokenLoginFailed, serverpackets.LoginFailedServerSide)
	}
	if user == nil {
		s.metrics.LoginsTotal.WithLabelValues("unknown-user").Inc()
		return loginFailure(tokenLoginFailed, serverpackets.LoginFailedAuth)
	}

	if !s.checkPassword(user.PwBcrypt, data.PwMD5) {
		s.metrics.LoginsTotal.WithLabelValues("bad-password").Inc()
		return loginFailure(tokenLoginFailed, serverpackets.LoginFailedAuth)
	}

	priv := constants.Privileges(user.Priv)
	if tourneyClient && !(priv.HasAny(constants.PrivDonator) && priv.HasAny(constants.PrivUnrestricted)) {
		// Tournament client access is a donation perk.
		s.metrics.LoginsTotal.WithLabelValues("tourney-denied").Inc()
		return loginFailure(tokenDenied, serverpackets.LoginFailedAuth)
	}

	if err := s.logins.Insert(ctx, user.ID, ip, osuVer.Date, osuVer.Stream, loginTime); err != nil {
		s.log.Error("recording login", "player", user.Name, "err", err)
	}
	if err := s.hashes.Upsert(ctx, user.ID, data.OsuPathMD5, data.AdaptersMD5,
		data.UninstallMD5, data.DiskSignatureMD5, loginTime); err != nil {
		s.log.Error("recording client hashes", "player", user.Name, "err", err)
	}

	firstLogin := !priv.HasAny(constants.PrivVerified)

	if !tourneyClient {
		matches, err := s.hashes.FindMatches(ctx, user.ID, data.AdaptersMD5,
			data.UninstallMD5, data.DiskSignatureMD5, runningUnderWine)
		if err != nil {
			s.log.Error("cross-referencing hardware", "player", user.Name, "err", err)
		} else if len(matches) > 0 {
			if firstLogin && anyRestricted(matches) {
				s.metrics.LoginsTotal.WithLabelValues("hardware-banned").Inc()
				return loginFailure(tokenContactStaff, serverpackets.LoginFailedAuth,
					"Please contact staff directly to create an account.")
			}
			s.log.Warn("hardware shared with other accounts",
				"player", user.Name, "matches", len(matches))
		}
	}

	if firstLogin {
		priv |= constants.PrivVerified
		if user.ID == 3 {
			// The first registered user becomes the server owner.
			priv |= constants.PrivStaff | constants.PrivNominator | constants.PrivWhitelisted |
				constants.PrivTourneyManager | constants.PrivDonator | constants.PrivAlumni
		}
		if err := s.players.UpdatePrivileges(ctx, user.ID, int32(priv)); err != nil {
			s.log.Error("granting verified", "player", user.Name, "err", err)
		}
	}

	geoloc, err := s.geo.Lookup(ip)
	if err != nil {
		s.log.Warn("geolocating client", "ip", ip, "err", err)
	}

	sess := &model.Session{
		ID:       user.ID,
		Name:     user.Name,
		SafeName: user.SafeName,
		Token:    uuid.NewString(),
		Priv:     priv,
		PwBcrypt: []byte(user.PwBcrypt),
		Friends:  make(map[int32]struct{}),
		Blocks:   make(map[int32]struct{}),
		Geoloc:   geoloc,
		ClientDetails: &model.ClientDetails{
			OsuVersion:       *osuVer,
			OsuPathMD5:       data.OsuPathMD5,
			AdaptersMD5:      data.AdaptersMD5,
			UninstallMD5:     data.UninstallMD5,
			DiskSignatureMD5: data.DiskSignatureMD5,
			Adapters:         adapters,
			IP:               ip,
		},
		UTCOffset:     data.UTCOffset,
		PMPrivate:     data.PMPrivate,
		SilenceEnd:    user.SilenceEnd,
		TourneyClient: tourneyClient,
		LoginTime:     loginTime,
	}
	sess.SetLastRecvTime(loginTime)

	if err := s.loadSessionState(ctx, sess); err != nil {
		s.log.Error("loading session state", "player", sess.Name, "err", err)
		s.metrics.LoginsTotal.WithLabelValues("error").Inc()
		return loginFailure(tokenLoginFailed, serverpackets.LoginFailedServerSide)
	}

	s.enqueueBootstrap(ctx, sess, loginTime)
	s.sessions.Register(sess)
	s.announceLogin(sess)

	s.metrics.LoginsTotal.WithLabelValues("ok").Inc()
	s.metrics.SessionsOnline.Set(float64(s.sessions.Len()))
	s.log.Info("session created", "player", sess.Name, "id", sess.ID,
		"stream", osuVer.Stream, "tourney", tourneyClient)

	return &LoginResult{Token: sess.Token, Body: sess.Dequeue()}
}

func anyRestricted(matches []db.HardwareMatch) bool {
	for _, m := range matches {
		if constants.Privileges(m.Priv)&constants.PrivUnrestricted == 0 {
			return true
		}
	}
	return false
}

// checkPassword verifies the client's md5 against the stored bcrypt,
// memoizing successes since a bcrypt verify is deliberately slow.
func (s *Server) checkPassword(pwBcrypt, pwMD5 string) bool {
	if cached, ok := s.bcryptCache.Get(pwBcrypt); ok {
		return cached.(string) == pwMD5
	}
	if err := bcrypt.CompareHashAndPassword([]byte(pwBcrypt), []byte(pwMD5)); err != nil {
		return false
	}
	s.bcryptCache.SetDefault(pwBcrypt, pwMD5)
	return true
}

// loadSessionState pulls stats and relationships from the database.
func (s *Server) loadSessionState(ctx context.Context, sess *model.Session) error {
	stats, err := s.players.LoadStats(ctx, sess.ID)
	if err != nil {
		return err
	}
	for _, st := range stats {
		if int(st.Mode) >= len(sess.Stats) {
			continue
		}
		ms := &sess.Stats[st.Mode]
		ms.TotalScore = st.TotalScore
		ms.RankedScore = st.RankedScore
		ms.PP = st.PP
		ms.Accuracy = st.Accuracy
		ms.Plays = st.Plays
		ms.MaxCombo = st.MaxCombo
		if !sess.Restricted() {
			ms.Rank = st.Rank
		}
	}

	friends, blocks, err := s.relations.Load(ctx, sess.ID)
	if err != nil {
		return err
	}
	for _, id := range friends {
		sess.Friends[id] = struct{}{}
	}
	for _, id := range blocks {
		sess.Blocks[id] = struct{}{}
	}
	// The bot is everyone's friend.
	sess.Friends[s.bot.ID] = struct{}{}
	return nil
}

// enqueueBootstrap queues the full login state dump for the new session.
func (s *Server) enqueueBootstrap(ctx context.Context, sess *model.Session, loginTime time.Time) {
	sess.Enqueue(serverpackets.ProtocolVersion(ProtocolVersion))
	sess.Enqueue(serverpackets.UserID(sess.ID))

	// The client needs the supporter bit to access some panels; everyone
	// gets it client-side.
	sess.Enqueue(serverpackets.BanchoPrivileges(sess.BanchoPriv() | constants.ClientPrivSupporter))

	sess.Enqueue(serverpackets.Notification(fmt.Sprintf("Welcome back to %s!", s.cfg.Domain)))

	for _, c := range s.channels.All() {
		if c.Instance || !c.CanRead(sess.Priv) {
			continue
		}
		// The client joins #lobby on its own when entering the lobby.
		if c.AutoJoin && c.RealName != "#lobby" {
			s.joinChannel(sess, c)
		}
		sess.Enqueue(serverpackets.ChannelInfo(c.Name(), c.Topic, c.Len()))
	}
	sess.Enqueue(serverpackets.ChannelInfoEnd())

	if s.cfg.MenuIconURL != "" {
		sess.Enqueue(serverpackets.MainMenuIcon(s.cfg.MenuIconURL, s.cfg.MenuOnclickURL))
	}

	sess.Enqueue(serverpackets.FriendsList(sess.FriendIDs()))
	sess.Enqueue(serverpackets.SilenceEnd(sess.RemainingSilence(loginTime)))

	sess.Enqueue(serverpackets.UserPresence(sess))
	sess.Enqueue(serverpackets.UserStats(sess))

	if sess.Restricted() {
		sess.Enqueue(serverpackets.AccountRestricted())
		sess.Enqueue(serverpackets.SendMessage(s.bot.Name,
			"Your account is currently in restricted mode. "+
				"You can still play, but your scores are hidden from others.",
			sess.Name, s.bot.ID))
	}

	// Everyone else's presence, with the bot on its compact path.
	for _, p := range s.sessions.All() {
		if p.BotClient {
			sess.Enqueue(serverpackets.BotPresence(p.ID, p.Name))
			sess.Enqueue(serverpackets.BotStats(p.ID, s.botActivity()))
			continue
		}
		if p.Restricted() {
			continue
		}
		sess.Enqueue(serverpackets.UserPresence(p))
		sess.Enqueue(serverpackets.UserStats(p))
	}

	s.deliverMail(ctx, sess)
}

// announceLogin fans the new session's presence out to everyone online.
func (s *Server) announceLogin(sess *model.Session) {
	if sess.Restricted() {
		return
	}
	presence := serverpackets.UserPresence(sess)
	stats := serverpackets.UserStats(sess)
	for _, p := range s.sessions.All() {
		if p.ID == sess.ID {
			continue
		}
		p.Enqueue(presence)
		p.Enqueue(stats)
	}
}

// deliverMail queues unread offline messages grouped per sender.
func (s *Server) deliverMail(ctx context.Context, sess *model.Session) {
	rows, err := s.mail.FetchUnread(ctx, sess.ID)
	if err != nil {
		s.log.Error("fetching unread mail", "player", sess.Name, "err", err)
		return
	}
	if len(rows) == 0 {
		return
	}

	seen := make(map[int32]struct{}, 4)
	for _, m := range rows {
		if _, ok := seen[m.SenderID]; !ok {
			seen[m.SenderID] = struct{}{}
			sess.Enqueue(serverpackets.SendMessage(m.SenderName,
				"Unread messages", sess.Name, m.SenderID))
		}
		ts := time.Unix(m.Time, 0)
		sess.Enqueue(serverpackets.SendMessage(m.SenderName,
			fmt.Sprintf("[%s] %s", ts.Format("Mon Jan 02 @ 03:04PM"), m.Msg),
			sess.Name, m.SenderID))
	}

	if err := s.mail.MarkRead(ctx, sess.ID); err != nil {
		s.log.Error("marking mail read", "player", sess.Name, "err", err)
	}
}
