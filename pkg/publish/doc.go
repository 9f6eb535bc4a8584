// Package publish uploads rebuilt locale bundles to S3-compatible object
// storage so static sites and CDNs can fetch them without touching the
// database.
//
// Each bundle is written as {prefix}/{language}.json:
//
//	pub, err := publish.NewS3(publish.Config{
//		Bucket:    "site-assets",
//		Prefix:    "locales",
//		AccessKey: os.Getenv("S3_ACCESS_KEY"),
//		SecretKey: os.Getenv("S3_SECRET_KEY"),
//	})
//	rebuilder := rebuild.New(content, bundles, rebuild.WithPublisher(pub))
//
// Nop discards every document and is used when publishing is not configured.
package publish
