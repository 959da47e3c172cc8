// Package config loads vtree.json, the project configuration read by the
// vtree command.
//
// # Configuration File Structure
//
//	{
//	  "templates": {
//	    "dir": "templates",
//	    "text": "collapse",
//	    "normalizeUnicode": true
//	  },
//	  "render": {
//	    "pretty": false,
//	    "minify": true
//	  },
//	  "server": {
//	    "host": "localhost",
//	    "port": 3000,
//	    "path": "/live",
//	    "writeTimeout": "10s"
//	  },
//	  "metrics": {
//	    "enabled": true,
//	    "namespace": "vtree",
//	    "path": "/metrics"
//	  },
//	  "s3": {
//	    "bucket": "my-templates",
//	    "prefix": "views/",
//	    "region": "eu-west-1"
//	  }
//	}
//
// When s3.bucket is set, templates are read from S3 instead of
// templates.dir.
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
package config
