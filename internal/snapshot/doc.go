// Package snapshot defines the saved form of a game.
//
// A snapshot records how many primes were consumed, the ledger state and
// one entry per roster slot. Snapshots are JSON documents:
//
//	{
//	  "version": 1,
//	  "session": "5f0c...",
//	  "savedAt": "2024-03-01T10:00:00Z",
//	  "primesConsumed": 15,
//	  "ledger": {"experience": 3, "level": 2, "skillPoints": 0, "experienceToNextLevel": 15},
//	  "roster": [{"name": "Enter", "state": {...}}, {"name": "Auto", "state": {...}}, null, null]
//	}
//
// Unmarshal checks the document shape before decoding so a corrupt save
// is reported with the path of the first offending value. Saves written
// by the original browser game, a bare JSON array, are migrated first.
package snapshot
