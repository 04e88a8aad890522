// Package config assembles the configuration of every admcodec package into
// one YAML document.
//
// A file only needs the keys it changes:
//
//	store:
//	  backend: minio
//	  prefix: farm-42
//	minio:
//	  connection:
//	    endpoint: minio:9000
//	    bucket_name: adm
//	codec:
//	  max_depth: 64
//
// The file path is read from ADMCODEC_CONFIG. Without it every section uses its
// package default: a file store under ./data, info logging and a metrics
// server on the metrics package's default address.
package config
