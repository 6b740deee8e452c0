// Package archive keeps subscription caches on disk so history survives a
// restart.
//
// Entries live in a badger database under keys of the form
//
//	history:<client identity>:<pattern>
//
// and hold the object wire form (see objstore) compressed with zstd. On
// startup the app restores each configured subscription from its entry and
// the first refresh only asks the backend for newer samples.
package archive
