// Rentline - Property Rental Listings and Lead Qualification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentline

/*
Package backup snapshots Rentline's data into tar.gz archives.

Archive layout:

	rentline-backup-{timestamp}-{id}.tar.gz
	├── data/{collection}.json   (one per JSON collection)
	├── uploads/{image}          (when IncludeUploads is set)
	├── analytics/badger.bak     (Badger backup stream, Badger store only)
	└── manifest.json            (Backup record with per-file SHA-256)

Collections are written by rename, so copying a file always sees a complete
version. Each file is consistent on its own; the archive as a whole is not
a point-in-time snapshot across collections.

The Manager keeps an index of archives in {dir}/index.json, prunes by count
and age after every run, and runs on a schedule as a suture service:

	mgr, err := backup.NewManager(cfg.Backup, backup.Sources{
		DataFiles:  []string{props.Path(), leads.Path()},
		UploadsDir: cfg.Uploads.Dir,
		Analytics:  badgerStore,
	})
	tree.AddDataService(mgr)

Restoring is an offline operation: stop the server and extract the archive
over the data directory. Analytics streams load with badger's restore tool.
*/
package backup
