// Package database parses DATABASE_URL and manages the SQL connection pool.
//
// # Overview
//
// The URL follows dj-database-url conventions so existing deployments keep
// working unchanged:
//
//	DATABASE_URL="sqlite:///db.sqlite3"                     # default, relative to BASE_DIR
//	DATABASE_URL="postgres://hrms:secret@db:5432/hrms"
//	DATABASE_URL="postgres://hrms@db/hrms?sslmode=require&max_conns=10"
//
// # Usage Example
//
//	desc, err := database.Parse(os.Getenv("DATABASE_URL"), baseDir, 600*time.Second)
//	if err != nil {
//		log.Fatal(err)
//	}
//	db, err := database.Open(desc)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer db.Close()
//
// Open never dials the server. The pool is created lazily by database/sql,
// so the process starts even while the database is still coming up; use
// Ping or HealthCheck to observe connectivity.
package database
