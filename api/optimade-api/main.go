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

// Command optimade-api serves the OPTIMADE REST API over an AiiDA entity
// store.
package main

import (
	"flag"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"

	"github.com/aiidateam/optimade-go/api/impl"
	"github.com/aiidateam/optimade-go/config"
	"github.com/aiidateam/optimade-go/entries"
	"github.com/aiidateam/optimade-go/mapper"
	"github.com/aiidateam/optimade-go/storage/memstore"
	"github.com/aiidateam/optimade-go/translator"
	"github.com/aiidateam/optimade-go/util/debuglog"
	"github.com/aiidateam/optimade-go/util/tracing"
)

// structureNodeType is the discriminator prefix for structure entities.
const structureNodeType = "data.core.structure.StructureData."

func main() {
	debuglog.Configure(debuglog.Options{})
	cfgFile := flag.String("cfg", "config.json", "Adapter configuration file")
	flag.Parse()

	cfg, err := config.Load(*cfgFile)
	if err != nil {
		log.WithError(err).Fatal("Unable to load configuration")
	}

	tracer, err := tracing.New("optimade-api", cfg.Tracing)
	if err != nil {
		log.WithError(err).Fatal("Unable to initialize tracing")
	}
	defer tracer.Close()

	if cfg.Backend.Kind != "memory" {
		log.WithFields(log.Fields{"kind": cfg.Backend.Kind}).
			Fatal("Unknown backend kind")
	}
	store, err := memstore.Load(cfg.Backend.Path)
	if err != nil {
		log.WithError(err).WithFields(log.Fields{"path": cfg.Backend.Path}).
			Fatal("Unable to load entity store")
	}
	log.WithFields(log.Fields{
		"path":     cfg.Backend.Path,
		"entities": store.Len(),
	}).Info("Entity store loaded")

	m := mapper.NewStructures(cfg.Provider.Prefix)
	structures := entries.NewCollection(store, m, translator.New(store, m), entries.Config{
		ResourceType:     "structures",
		NodeType:         structureNodeType,
		DefaultPageLimit: cfg.Limits.DefaultPageLimit,
		MaxPageLimit:     cfg.Limits.MaxPageLimit,
		Metrics:          entries.NewMetrics(prometheus.DefaultRegisterer),
	})

	server := impl.New(cfg, structures)
	log.WithError(server.Run()).Fatal("API server exited")
}
