// Package integrity checks that image records and stored objects agree.
//
// CheckImages lists every object under the image prefix of the bucket and
// every storage key in the images table, concurrently, and reports:
//
//   - MissingObjects: records whose object is absent. Their display URL
//     presigns fine but the image never loads.
//   - Orphans: objects that no record points to.
//
// # HTTP Endpoints
//
//   - GET /integrity : Runs the image check.
package integrity
