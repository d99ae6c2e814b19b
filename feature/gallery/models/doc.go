// Package models defines the gallery records shared by the feed and likes
// features.
//
// ImageRecord and LikeEdge are owned by the remote store and mapped with
// GORM. ResolvedImage is the client-side view of a record once its storage
// key has been turned into a time-limited display URL; its LayoutHint is a
// cosmetic value derived on the client and never persisted.
package models
