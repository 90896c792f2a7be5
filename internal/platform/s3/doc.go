// Package s3 provides a client for S3-compatible object storage.
//
// The bucket next to the engine's state holds two things this tool cares
// about: the persisted project records (one YAML document per project, see
// [RecordStore]) and the engine's state backups, which are removed after a
// stack is destroyed. [Client] satisfies stack.BlobStore.
package s3
