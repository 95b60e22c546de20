// Package model defines the entity reference model shared by every Cristal
// storage backend.
//
// # Core Concepts
//
//  1. EntityType: closed enumeration of the addressable entity kinds (wiki,
//     space, document, attachment).
//
//  2. EntityReference: structured pointer to a wiki entity. Exactly four
//     implementations exist (WikiReference, SpaceReference,
//     DocumentReference, AttachmentReference); the interface is sealed so
//     backends can switch over them exhaustively.
//
//  3. Parent chain: attachment -> document -> space -> wiki. Every link above
//     the attachment's document is optional, which is how relative
//     references are represented.
//
// # Usage Examples
//
//	space := model.NewSpaceReference(nil, "Sandbox", "Tests")
//	doc := model.NewDocumentReference("WebHome", space)
//	att := model.NewAttachmentReference("image.png", doc, nil)
//
//	model.Equal(att, other)              // structural equality
//	model.Extract(att, model.EntityTypeSpace) // the Sandbox.Tests space
//
// References are immutable: accessors return copies of slices and maps and
// derived values (WithTerminal) are new references.
package model
