// Copyright 2026 The optimade-go Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
// https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command optimade-extras maintains the computed OPTIMADE attributes stored
// in each entity's extras namespace.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/docopt/docopt-go"
	log "github.com/sirupsen/logrus"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/aiidateam/optimade-go/config"
	"github.com/aiidateam/optimade-go/mapper"
	"github.com/aiidateam/optimade-go/storage/memstore"
	"github.com/aiidateam/optimade-go/translator"
	"github.com/aiidateam/optimade-go/util/debuglog"
)

const usage = `optimade-extras maintains the computed OPTIMADE attributes.

init calculates every missing computed attribute. remove deletes the named
attributes from all entities. reinit drops the whole computed-attribute
namespace and calculates it from scratch.

Usage:
  optimade-extras [--cfg=FILE] init
  optimade-extras [--cfg=FILE] [--yes] remove FIELD...
  optimade-extras [--cfg=FILE] [--yes] reinit
  optimade-extras -h | --help

Options:
  --cfg=FILE  Adapter configuration file [default: config.json]
  -y, --yes   Skip the confirmation prompt for destructive commands.
  -h, --help  Show this usage message.
`

// structureNodeType is the discriminator prefix for structure entities.
const structureNodeType = "data.core.structure.StructureData."

func main() {
	debuglog.Configure(debuglog.Options{})
	opts, err := docopt.ParseDoc(usage)
	if err != nil {
		log.WithError(err).Fatal("Unable to parse command line")
	}
	var args struct {
		Cfg    string   `docopt:"--cfg"`
		Yes    bool     `docopt:"--yes"`
		Init   bool     `docopt:"init"`
		Remove bool     `docopt:"remove"`
		Reinit bool     `docopt:"reinit"`
		Fields []string `docopt:"FIELD"`
	}
	if err := opts.Bind(&args); err != nil {
		log.WithError(err).Fatal("Unable to parse command line")
	}

	cfg, err := config.Load(args.Cfg)
	if err != nil {
		log.WithError(err).Fatal("Unable to load configuration")
	}
	if cfg.Backend.Kind != "memory" {
		log.WithFields(log.Fields{"kind": cfg.Backend.Kind}).
			Fatal("Unknown backend kind")
	}
	store, err := memstore.Load(cfg.Backend.Path)
	if err != nil {
		log.WithError(err).Fatal("Unable to load entity store")
	}

	ctx := context.Background()
	m := mapper.NewStructures(cfg.Provider.Prefix)
	tr := translator.New(store, m)
	pks, err := structurePKs(ctx, store)
	if err != nil {
		log.WithError(err).Fatal("Unable to enumerate structure entities")
	}

	p := message.NewPrinter(language.English)
	switch {
	case args.Init:
		if err := tr.CalculateMany(ctx, pks, nil); err != nil {
			log.WithError(err).Fatal("Attribute calculation failed")
		}
		p.Printf("Calculated missing OPTIMADE attributes for %d entities\n", len(pks))
	case args.Remove:
		prompt := fmt.Sprintf("Remove %s from %d entities?",
			strings.Join(args.Fields, ", "), len(pks))
		if !args.Yes && !confirm(prompt) {
			fmt.Println("Aborted.")
			return
		}
		if err := tr.RemoveFields(ctx, pks, args.Fields); err != nil {
			log.WithError(err).Fatal("Attribute removal failed")
		}
		p.Printf("Removed %d attributes from %d entities\n", len(args.Fields), len(pks))
	case args.Reinit:
		prompt := fmt.Sprintf(
			"Drop all computed OPTIMADE attributes of %d entities and recalculate?", len(pks))
		if !args.Yes && !confirm(prompt) {
			fmt.Println("Aborted.")
			return
		}
		if err := tr.DropNamespace(ctx, pks); err != nil {
			log.WithError(err).Fatal("Unable to drop the attribute namespace")
		}
		if err := tr.CalculateMany(ctx, pks, nil); err != nil {
			log.WithError(err).Fatal("Attribute calculation failed")
		}
		p.Printf("Reinitialized OPTIMADE attributes for %d entities\n", len(pks))
	}

	if err := store.Save(); err != nil {
		log.WithError(err).Fatal("Unable to persist the entity store")
	}
}

// structurePKs lists the PKs of all structure entities.
func structurePKs(ctx context.Context, store *memstore.Store) ([]int64, error) {
	rows, err := store.Query().
		WithType(structureNodeType).
		Project([]string{"id"}).
		Rows(ctx)
	if err != nil {
		return nil, err
	}
	pks := make([]int64, 0, len(rows))
	for _, row := range rows {
		if pk, ok := row[0].(int64); ok {
			pks = append(pks, pk)
		}
	}
	return pks, nil
}

func confirm(prompt string) bool {
	fmt.Printf("%s [y/N] ", prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
