// Folio - Collaborative-Filtering Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

/*
Package supervisor runs the long-lived parts of folio serve under a suture v4
supervisor tree.

	RootSupervisor ("folio")
	├── TrainingSupervisor ("training-layer")
	│   └── TrainerService (train on startup, scheduled rebuilds)
	└── APISupervisor ("api-layer")
	    ├── HTTPServerService
	    └── ResultCacheJanitor (expired query results)

The layers restart independently: a crashed trainer never takes the HTTP
server down, and queries keep hitting the last published generation while
the trainer backs off.

Supervisor events are logged through sutureslog, bridged onto zerolog with
logging.NewSlogLogger:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger("supervisor"), supervisor.DefaultTreeConfig())
	tree.AddTrainingService(trainer)
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second, logger))
	err = tree.Serve(ctx)
*/
package supervisor
