// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

// Package vcs is the thin typed facade the rebase engine consumes (C6):
// a Perforce client adapter shelling to the real p4 binary in its JSON
// output mode, `p4 -Mj=1 -ztag <command>`, which emits one JSON object per
// record with no enclosing array — decoded here with a streaming
// json.Decoder rather than a line-oriented scanner.
package vcs

// changeRecord mirrors the per-element shape of `p4 changes -s pending -u
// <user> -l -Mj=1 -ztag`.
type changeRecord struct {
	Change string `json:"change"`
	Time   string `json:"time"`
	User   string `json:"user"`
	Client string `json:"client"`
	Status string `json:"status"`
	Desc   string `json:"desc"`
}

// describeRecord mirrors `p4 describe -s -Mj=1 -ztag <cl>`.
type describeRecord struct {
	Change string `json:"change"`
	User   string `json:"user"`
	Client string `json:"client"`
	Time   string `json:"time"`
	Desc   string `json:"desc"`
	Status string `json:"status"`
}

// describeShelvedRecord mirrors `p4 describe -S -s -Mj=1 -ztag <cl>`, used
// by IsShelved to check for a shelf's existence.
type describeShelvedRecord struct {
	Change     string   `json:"change"`
	Status     string   `json:"status"`
	ShelveFile []string `json:"depotFile,omitempty"`
}

// printMetaRecord is the metadata half of `p4 print -Mj=1 -ztag
// //...@=<cl>`. PrintAt does not decode into this type: it reads metadata
// and content records alike from the same JSON record stream and pairs
// them by position.
type printMetaRecord struct {
	DepotFile string `json:"depotFile"`
	Rev       string `json:"rev"`
	Change    string `json:"change"`
	Action    string `json:"action"`
	Type      string `json:"type"`
	FileSize  string `json:"fileSize"`
}

// whereRecord mirrors `p4 where -Mj=1 -ztag <depot-path>`.
type whereRecord struct {
	DepotFile  string `json:"depotFile"`
	ClientFile string `json:"clientFile"`
	Path       string `json:"path"`
}

// newChangeRecord mirrors `p4 change -o -Mj=1 -ztag`, the spec for a new
// pending changelist before it is saved.
type newChangeRecord struct {
	Change      string `json:"Change"`
	Client      string `json:"Client"`
	User        string `json:"User"`
	Status      string `json:"Status"`
	Description string `json:"Description"`
}

// ticketRecord mirrors one element of `p4 tickets -Mj=1 -ztag`.
type ticketRecord struct {
	Host   string `json:"Host"`
	User   string `json:"User"`
	Ticket string `json:"Ticket"`
}

// errorRecord is how p4 reports a command-level error in -Mj=1 mode: a
// record with a "code" of "error" rather than "stat".
type errorRecord struct {
	Code string `json:"code"`
	Data string `json:"data"`
}

// propertyRecord mirrors one element of `p4 property -l -n <name> -Mj=1
// -ztag`, used to resolve the Swarm review service's URL off the server.
type propertyRecord struct {
	Name     string `json:"name"`
	Sequence string `json:"sequence"`
	Value    string `json:"value"`
}
