package commands

import (
	"fmt"

	"github.com/bidback/backend/internal/breadth"
	"github.com/bidback/backend/internal/rules"
	"github.com/bidback/backend/pkg/config"
	"github.com/bidback/backend/pkg/database"
	"github.com/bidback/backend/pkg/logger"
	"github.com/bidback/backend/pkg/redis"
)

// app bundles the wired components every database-backed command needs.
type app struct {
	cfg     *config.Config
	log     *logger.Logger
	db      *database.DB
	cache   *redis.Cache
	rules   *rules.Config
	mapper  *breadth.FieldMapper
	repo    *breadth.Repository
	service *breadth.Service

	closers []func()
}

// setup loads config and wires the full stack. Call close when done.
func setup() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg)

	ruleSet, err := loadRules(cfg, log)
	if err != nil {
		return nil, err
	}

	db, err := database.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	redisClient, err := redis.New(cfg)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	cache := redis.NewCache(redisClient, "bidback")

	mapper := breadth.NewFieldMapper()
	repo, err := breadth.NewRepository(db, cfg.Database.SchemaGeneration, mapper, log)
	if err != nil {
		redisClient.Close()
		db.Close()
		return nil, err
	}
	service := breadth.NewService(repo, mapper, cache, log)

	return &app{
		cfg:     cfg,
		log:     log,
		db:      db,
		cache:   cache,
		rules:   ruleSet,
		mapper:  mapper,
		repo:    repo,
		service: service,
		closers: []func(){func() { redisClient.Close() }, db.Close},
	}, nil
}

// close releases connections in reverse wiring order.
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// loadRules resolves the BIDBACK rule tables: --rules flag first, then the
// RULES_FILE env, then the built-in defaults. The hash is logged so journal
// entries can be tied to the exact rule set that sized them.
func loadRules(cfg *config.Config, log *logger.Logger) (*rules.Config, error) {
	path := rulesFile
	if path == "" {
		path = cfg.Trading.RulesFile
	}

	if path == "" {
		return rules.Default(), nil
	}

	ruleSet, _, err := rules.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load rules %s: %w", path, err)
	}

	if hash, err := rules.Hash(ruleSet); err == nil {
		log.WithFields(map[string]interface{}{
			"file": path,
			"hash": hash[:12],
		}).Info("Loaded rule file")
	}
	return ruleSet, nil
}
