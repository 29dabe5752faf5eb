// rsql parses, lints and evaluates RSQL filter expressions, and serves
// them over HTTP against a SQLite document store.
//
// Usage:
//
//	# Parse a query and print its tree
//	rsql parse 'genre=in=(sci-fi,action);year=ge=2000'
//
//	# Show the SQL a query renders to
//	rsql parse --sql 'name=="Kill*"'
//
//	# Lint a file of queries, one per line
//	rsql lint queries.txt
//
//	# Filter a JSON file in memory
//	rsql filter 'year=lt=1990' movies.json
//
//	# Import documents and query them
//	rsql import movies movies.json
//	rsql query movies 'director.name==Tarantino'
//
//	# Start the HTTP API
//	rsql serve --config rsql.yaml
package main

func main() {
	Execute()
}
