// Package linkbio provides the content model and services behind a
// "link in bio" page: a single published profile with prioritized links,
// a featured image carousel, an affiliate product gallery and a newsletter
// sign-up, plus the owner dashboard operations that manage them.
//
// The Service interface is the boundary used by transports. It exposes two
// trust levels:
//
//   - the public surface, scoped to the deployment's published owner, which
//     only ever returns active content in display order;
//   - the owner surface, which requires the caller's owner ID and verifies
//     that every mutated resource belongs to that owner before touching the
//     store.
//
// Persistence is pluggable through the Repository interface (memory,
// Postgres and database/sql backends are provided under repo/). Uploaded
// images go through a MediaStore (memory, filesystem, S3, Cloudinary under
// media/) and content changes can be published through an EventSink.
//
// Ordering
//
// Display order is computed by the pure functions in visibility.go. Links are
// ordered priority first, then by ascending sort order; carousel images and
// products by ascending sort order. Remaining ties are broken by identifier.
// Identifiers are UUIDv7 values, so identifier order is creation order.
package linkbio
