// Package config provides configuration parsing for atomctl.
//
// The configuration is stored in atomctl.json. Every field is optional;
// missing fields take the defaults from New.
//
// # Configuration File Structure
//
//	{
//	  "listen": "localhost:7070",
//	  "state": "./state.json",
//	  "logLevel": "debug",
//	  "namespace": "inventory",
//	  "metrics": {
//	    "enabled": true,
//	    "path": "/metrics"
//	  },
//	  "watch": {
//	    "pingInterval": "30s",
//	    "writeTimeout": "10s",
//	    "maxMessageSize": 1048576,
//	    "readOnly": false
//	  }
//	}
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
//
//	doc, err := cfg.LoadState()
package config
