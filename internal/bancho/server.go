package bancho

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/osukon/banchod/internal/bancho/packet"
	"github.com/osukon/banchod/internal/config"
	"github.com/osukon/banchod/internal/constants"
	"github.com/osukon/banchod/internal/db"
	"github.com/osukon/banchod/internal/metrics"
	"github.com/osukon/banchod/internal/model"
)

// Geolocator resolves client IPs to coordinates and country. Private
// addresses resolve to the zero Geolocation.
type Geolocator interface {
	Lookup(ip string) (model.Geolocation, error)
}

// CommandResult is a chat command's outcome.
type CommandResult struct {
	Response string
	// Hidden responses go only to the invoker and staff, not the channel.
	Hidden bool
}

// CommandProcessor runs prefixed chat commands addressed to the bot or
// sent in channels.
type CommandProcessor interface {
	Execute(ctx context.Context, s *model.Session, target, msg string) (*CommandResult, error)
}

// PerformanceCalculator estimates pp values for a map and mod combination.
// Optional; when present the bot's /np reply includes the estimate.
type PerformanceCalculator interface {
	Calculate(ctx context.Context, mapID int32, mods constants.Mods, modeVN uint8) (string, error)
}

// Server is the bancho session core: registries, persistence, and the
// packet handler tables.
type Server struct {
	cfg config.Server
	log *slog.Logger

	sessions *SessionManager
	channels *ChannelManager
	matches  *MatchManager

	players   *db.PlayerRepository
	relations *db.RelationshipRepository
	mail      *db.MailRepository
	hashes    *db.ClientHashRepository
	logins    *db.LoginRepository
	chanRepo  *db.ChannelRepository
	beatmaps  *db.BeatmapRepository
	scores    *db.ScoreRepository

	metrics *metrics.Registry

	geo      Geolocator
	commands CommandProcessor
	menus    MenuHandler
	perf     PerformanceCalculator

	bot *model.Session

	// Memoizes successful bcrypt checks; a verify costs ~250ms.
	bcryptCache *gocache.Cache

	handlers           map[packet.ClientPacketID]handlerFunc
	restrictedHandlers map[packet.ClientPacketID]handlerFunc

	startedAt time.Time
}

// NewServer wires the session core together. LoadChannels must be called
// before serving traffic.
func NewServer(cfg config.Server, log *slog.Logger, database *db.DB, reg *metrics.Registry, geo Geolocator, commands CommandProcessor) *Server {
	pool := database.Pool()
	s := &Server{
		cfg:         cfg,
		log:         log,
		sessions:    NewSessionManager(),
		channels:    NewChannelManager(),
		matches:     NewMatchManager(),
		players:     db.NewPlayerRepository(pool),
		relations:   db.NewRelationshipRepository(pool),
		mail:        db.NewMailRepository(pool),
		hashes:      db.NewClientHashRepository(pool),
		logins:      db.NewLoginRepository(pool),
		chanRepo:    db.NewChannelRepository(pool),
		beatmaps:    db.NewBeatmapRepository(pool),
		scores:      db.NewScoreRepository(pool),
		metrics:     reg,
		geo:         geo,
		commands:    commands,
		bcryptCache: gocache.New(time.Hour, 10*time.Minute),
		startedAt:   time.Now(),
	}

	s.bot = &model.Session{
		ID:        cfg.BotID,
		Name:      cfg.BotName,
		SafeName:  model.MakeSafeName(cfg.BotName),
		Token:     uuid.NewString(),
		Priv:      constants.PrivUnrestricted | constants.PrivVerified,
		BotClient: true,
		LoginTime: time.Now(),
		Friends:   make(map[int32]struct{}),
		Blocks:    make(map[int32]struct{}),
	}
	s.bot.SetLastRecvTime(time.Now())
	s.sessions.Register(s.bot)

	s.registerHandlers()
	return s
}

// SetCommandProcessor installs the chat command dispatcher. The command
// package depends on Server, so it is wired after construction.
func (s *Server) SetCommandProcessor(cp CommandProcessor) {
	s.commands = cp
}

// SetPerformanceCalculator installs the optional pp estimator used by the
// bot's /np reply.
func (s *Server) SetPerformanceCalculator(pc PerformanceCalculator) {
	s.perf = pc
}

// Config returns the server configuration.
func (s *Server) Config() config.Server {
	return s.cfg
}

// Bot returns the server's bot session.
func (s *Server) Bot() *model.Session {
	return s.bot
}

// Sessions returns the session registry.
func (s *Server) Sessions() *SessionManager {
	return s.sessions
}

// Channels returns the channel registry.
func (s *Server) Channels() *ChannelManager {
	return s.channels
}

// Matches returns the match registry.
func (s *Server) Matches() *MatchManager {
	return s.matches
}

// LoadChannels populates the channel registry from the database.
func (s *Server) LoadChannels(ctx context.Context) error {
	rows, err := s.chanRepo.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("loading channels: %w", err)
	}
	for _, row := range rows {
		s.channels.Add(model.NewChannel(
			row.Name, row.Topic,
			constants.Privileges(row.ReadPriv), constants.Privileges(row.WritePriv),
			row.AutoJoin, false,
		))
	}
	s.log.Info("channels loaded", "count", len(rows))
	return nil
}
