// Package config loads the generator configuration from YAML.
//
//	title: Pet Store
//	version: 1.0.0
//	app_path: app
//	tag_index: 2
//	snake_case: true
//	ignore: ["/docs", "/uploads*"]
//	common:
//	  parameters:
//	    paging:
//	      - {name: page, in: query, schema: {type: integer, example: 1}}
//	  headers:
//	    rate:
//	      X-Rate-Limit: {description: Requests left, schema: {type: integer}}
//	log:
//	  level: info
//	  format: console
package config
