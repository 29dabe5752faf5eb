// Package retention deletes stored records on a schedule.
//
// Each rule names a collection, an optional RSQL filter and an optional
// maximum age. A run deletes the records of the collection that match the
// filter and were created before now minus the maximum age:
//
//	retention:
//	  enabled: true
//	  schedule: "0 3 * * *"
//	  rules:
//	    - name: stale-drafts
//	      collection: posts
//	      filter: status==draft
//	      max_age: 720h
//
// Rules are independent. A failing rule is logged and reported but does
// not stop the remaining rules.
package retention
