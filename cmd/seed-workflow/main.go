// Command seed-workflow bootstraps a desk's lead workflow offline: it
// seeds the default funnel transitions and, optionally, links legacy
// free-text lead statuses to their matching states. Safe to rerun;
// existing transitions and already-linked leads are left untouched.
//
// Flags:
//
//	--desk           desk id to bootstrap (required)
//	--migrate-leads  also backfill legacy lead statuses
//	--actor          user id recorded in the audit trail (optional)
//
// Exit codes: 0 = success, 1 = error.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/leaddesk/crm-backend/internal/app"
	"github.com/leaddesk/crm-backend/pkg/ctxutil"
)

func main() {
	deskFlag := flag.String("desk", "", "desk id to bootstrap (required)")
	migrateFlag := flag.Bool("migrate-leads", false, "also backfill legacy lead statuses")
	actorFlag := flag.String("actor", "", "user id recorded in the audit trail")
	flag.Parse()

	deskID, err := uuid.Parse(*deskFlag)
	if err != nil {
		log.Fatalf("--desk must be a valid uuid: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if *actorFlag != "" {
		actorID, parseErr := uuid.Parse(*actorFlag)
		if parseErr != nil {
			log.Fatalf("--actor must be a valid uuid: %v", parseErr)
		}
		ctx = ctxutil.WithActorID(ctx, actorID)
	}

	a, err := app.New(ctx)
	if err != nil {
		log.Fatalf("init: %v", err)
	}
	defer a.Close()

	created := 0
	if a.Cfg.Workflow.SeedDefaults {
		created, err = a.Bootstrap.SeedDefaultTransitions(ctx, deskID)
		if err != nil {
			a.Log.Error("seed default transitions",
				slog.String("desk_id", deskID.String()),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
	} else {
		a.Log.Info("default seeding disabled by config", slog.String("desk_id", deskID.String()))
	}

	if *migrateFlag {
		migrated, migrateErr := a.Bootstrap.MigrateLegacyStatuses(ctx, deskID)
		if migrateErr != nil {
			a.Log.Error("migrate legacy statuses",
				slog.String("desk_id", deskID.String()),
				slog.String("error", migrateErr.Error()),
			)
			os.Exit(1)
		}
		a.Log.Info("bootstrap completed",
			slog.String("desk_id", deskID.String()),
			slog.Int("transitions_created", created),
			slog.Int64("leads_migrated", migrated),
		)
		return
	}

	a.Log.Info("bootstrap completed",
		slog.String("desk_id", deskID.String()),
		slog.Int("transitions_created", created),
	)
}
