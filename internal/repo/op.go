package repo

import (
	"github.com/roach88/signet/internal/crypt"
	"github.com/roach88/signet/internal/item"
)

// Operation is one element of a commit batch: either the signed
// payload of an item to add or replace, or the path of an item to
// delete. Constructed only via AddOrReplace and Delete.
type Operation struct {
	addOrReplace *crypt.SignedString
	deletePath   *item.Path
}

// AddOrReplace submits a signed item payload.
func AddOrReplace(signed crypt.SignedString) Operation {
	return Operation{addOrReplace: &signed}
}

// Delete submits a deletion of a currently Known path.
func Delete(path item.Path) Operation {
	return Operation{deletePath: &path}
}
