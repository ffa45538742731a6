package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/gravitas-games/stashkeeper/internal/audit"
	"github.com/gravitas-games/stashkeeper/internal/config"
	"github.com/gravitas-games/stashkeeper/internal/events"
	"github.com/gravitas-games/stashkeeper/internal/inventory"
	"github.com/gravitas-games/stashkeeper/internal/loot"
	"github.com/gravitas-games/stashkeeper/internal/mail"
	"github.com/gravitas-games/stashkeeper/internal/profile"
	"github.com/gravitas-games/stashkeeper/internal/session"
	"github.com/gravitas-games/stashkeeper/internal/trade"
	"github.com/gravitas-games/stashkeeper/pkg/logger"
	"github.com/gravitas-games/stashkeeper/pkg/models"
)

const demoProfileID = "demo"

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to the YAML config (defaults apply when empty)")
	demo := flag.Bool("demo", false, "seed a sample profile into memory and play a short session before auditing")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
			os.Exit(2)
		}
		cfg = loaded
	}
	if *demo {
		cfg.Storage.Backend = "memory"
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	findings, err := run(ctx, cfg, *demo, log)
	if err != nil {
		log.WithError(err).Fatal("audit failed")
	}
	if findings > 0 {
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, demo bool, log *logrus.Logger) (int, error) {
	var catalog *inventory.Registry
	if demo || cfg.Catalog.Path == "" {
		catalog = inventory.SampleCatalog()
	} else {
		var err error
		if catalog, err = inventory.LoadRegistry(cfg.Catalog.Path); err != nil {
			return 0, err
		}
	}
	log.WithField("templates", catalog.Len()).Info("catalog loaded")

	engine := inventory.NewEngine(catalog,
		inventory.WithLogger(log),
		inventory.WithLimits(inventory.Limits{
			MoneyTemplates:     cfg.Inventory.MoneyTemplates,
			SortingTableWidth:  cfg.Inventory.SortingTableWidth,
			SortingTableHeight: cfg.Inventory.SortingTableHeight,
			StashWidth:         cfg.Inventory.StashWidth,
			StashHeight:        cfg.Inventory.StashHeight,
			FastPanelSlots:     cfg.Inventory.FastPanelSlots,
		}),
	)

	store, err := profile.Open(ctx, cfg, log)
	if err != nil {
		return 0, err
	}
	defer store.Close()

	if demo {
		if err := playDemo(ctx, cfg, engine, store, log); err != nil {
			return 0, err
		}
	}

	report, err := audit.New(store, engine, log).Run(ctx)
	if err != nil {
		return 0, err
	}
	for _, f := range report.Findings {
		log.WithFields(logrus.Fields{
			"profile_id":   f.ProfileID,
			"owner":        f.Owner,
			"item_id":      f.ItemID,
			"tpl":          f.Tpl,
			"container_id": f.ContainerID,
		}).Warnf("%s: %s", f.Kind, f.Detail)
	}
	for kind, n := range report.Counts() {
		log.WithField("kind", kind).Infof("%d finding(s)", n)
	}
	return len(report.Findings), nil
}

// playDemo seeds one profile and runs trader and flea buys, a mail
// collection and a loot crate through a session so the audit has something lived-in to check.
func playDemo(ctx context.Context, cfg *config.Config, engine *inventory.Engine, store profile.Store, log *logrus.Logger) error {
	ch := inventory.SampleCharacter()
	ch.Inventory.Items = append(ch.Inventory.Items, models.Item{
		ID: "crate-1", Tpl: inventory.SampleCrate, ParentID: ch.Inventory.Stash, SlotID: models.StashSlot,
		Location: &models.Location{X: 0, Y: 5, R: models.RotationHorizontal},
	})
	if err := store.Save(ctx, &models.Profile{ID: demoProfileID, Username: "demo", PMC: *ch}); err != nil {
		return err
	}

	bus := events.NewSimpleBus()
	bus.Subscribe(demoProfileID, func(ev events.Event) {
		if ev.Changes == nil {
			log.WithField("event", ev.Type.String()).Info("inventory event")
			return
		}
		log.WithFields(logrus.Fields{
			"event":   ev.Type.String(),
			"new":     len(ev.Changes.New),
			"changed": len(ev.Changes.Changed),
			"deleted": len(ev.Changes.Deleted),
		}).Info("inventory event")
	})
	defer bus.Unsubscribe(demoProfileID)

	sessions := session.NewManager(store, bus, log)
	sess, err := sessions.Start(ctx, demoProfileID)
	if err != nil {
		return err
	}
	defer sessions.End(sess.ID)

	shop := trade.NewService(engine, trade.WithLogger(log), trade.WithFleaResource(cfg.Trade.FleaResource))
	shop.AddTrader(trade.NewTrader("prapor", trade.Offer{
		ID:    "ammo-offer",
		Items: []models.Item{{ID: "ammo-tpl", Tpl: inventory.SampleAmmo, Upd: &models.Upd{StackObjectsCount: 1}}},
		Price: []trade.Cost{{Tpl: inventory.SampleRoubles, Count: 120}},
		Stock: 500,
	}))
	if _, err := sessions.Do(ctx, sess.ID, events.EventPurchase, func(tx *session.Tx) (*inventory.Changes, error) {
		return shop.Buy(tx.PMC, trade.BuyRequest{ProfileID: demoProfileID, TraderID: "prapor", OfferID: "ammo-offer", Count: 150})
	}); err != nil {
		return fmt.Errorf("demo purchase: %w", err)
	}
	shop.ListOnFlea(trade.Offer{
		ID:    "flea-bolts",
		Items: []models.Item{{ID: "flea-bolts", Tpl: inventory.SampleBolts, Upd: &models.Upd{StackObjectsCount: 1}}},
		Price: []trade.Cost{{Tpl: inventory.SampleRoubles, Count: 2500}},
		Stock: 20,
	})
	if _, err := sessions.Do(ctx, sess.ID, events.EventPurchase, func(tx *session.Tx) (*inventory.Changes, error) {
		return shop.BuyFromFlea(tx.PMC, demoProfileID, "flea-bolts", 4)
	}); err != nil {
		return fmt.Errorf("demo flea purchase: %w", err)
	}

	post := mail.NewService(engine, log)
	if _, err := sessions.Do(ctx, sess.ID, events.EventMailCollected, func(tx *session.Tx) (*inventory.Changes, error) {
		msg := post.Send(tx.Profile, "therapist", "Insurance return", [][]models.Item{
			{{ID: "medkit", Tpl: inventory.SampleMedkit}},
			{{ID: "bolts", Tpl: inventory.SampleBolts, Upd: &models.Upd{StackObjectsCount: 3}}},
		})
		from, err := tx.Mail(msg.ID)
		if err != nil {
			return nil, err
		}
		return post.CollectAll(from, tx.PMC)
	}); err != nil {
		return fmt.Errorf("demo mail: %w", err)
	}

	tables := cfg.Loot.Containers
	if len(tables) == 0 {
		tables = map[string]config.LootTable{
			inventory.SampleCrate: {Rolls: 2, Rewards: []config.LootEntry{
				{Tpl: inventory.SampleSuppressor, Weight: 1, Min: 1, Max: 1},
				{Tpl: inventory.SampleBolts, Weight: 3, Min: 2, Max: 8},
			}},
		}
	}
	opener := loot.NewOpener(engine, tables, rand.New(rand.NewSource(time.Now().UnixNano())), log)
	if _, err := sessions.Do(ctx, sess.ID, events.EventLootOpened, func(tx *session.Tx) (*inventory.Changes, error) {
		return opener.Open(tx.PMC, "crate-1")
	}); err != nil {
		return fmt.Errorf("demo loot: %w", err)
	}
	return nil
}
