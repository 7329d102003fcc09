//go:build !ios && !android && (amd64 || arm64)

package projgo

import (
	"fmt"

	"github.com/projgo/projgo/libproj"
)

// CRS is a coordinate reference system realized by the native engine.
//
// A CRS is safe for concurrent use. Close releases the native object
// eagerly; an unclosed CRS is reclaimed in the background once unreachable.
type CRS struct {
	*object
	name string
	typ  libproj.ObjectType
	auth string
	code string
}

// NewCRS creates a coordinate reference system from a definition: an
// AUTHORITY:CODE string such as "EPSG:4326", a WKT string, or a proj-string.
func NewCRS(pool *ContextPool, definition string) (*CRS, error) {
	var crs *CRS
	err := pool.WithContext(func(ec *ExecutionContext) error {
		pj := libproj.Create(ec.ptr, definition)
		if pj == nil {
			return constructionError(ec.ptr, "proj_create")
		}
		if !libproj.IsCRS(pj) {
			libproj.Destroy(pj)
			return &Error{
				Kind:    KindConstruction,
				Op:      "proj_create",
				Message: fmt.Sprintf("%q is not a coordinate reference system", definition),
				Index:   -1,
			}
		}
		crs = wrapCRS(pj, pool)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return crs, nil
}

// NewCRSFromAuthority creates a coordinate reference system from an
// authority database lookup, e.g. NewCRSFromAuthority(pool, "EPSG", "4326").
func NewCRSFromAuthority(pool *ContextPool, authority, code string) (*CRS, error) {
	var crs *CRS
	err := pool.WithContext(func(ec *ExecutionContext) error {
		pj := libproj.CreateFromDatabase(ec.ptr, authority, code, libproj.CategoryCRS)
		if pj == nil {
			return constructionError(ec.ptr, "proj_create_from_database")
		}
		crs = wrapCRS(pj, pool)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return crs, nil
}

// wrapCRS reads the descriptive metadata once and takes ownership of pj.
func wrapCRS(pj libproj.PJ, pool *ContextPool) *CRS {
	return &CRS{
		object: newObject(newHandle(pj, libproj.Destroy), pool),
		name:   libproj.GetName(pj),
		typ:    libproj.GetType(pj),
		auth:   libproj.GetIDAuthName(pj, 0),
		code:   libproj.GetIDCode(pj, 0),
	}
}

// Name returns the CRS name, e.g. "WGS 84".
func (c *CRS) Name() string {
	return c.name
}

// Type returns the ISO-19111 object type, e.g. libproj.TypeGeographic2DCRS.
func (c *CRS) Type() libproj.ObjectType {
	return c.typ
}

// AuthorityCode returns the primary identifier, e.g. ("EPSG", "4326").
// Both values are empty when the CRS has no registered identifier.
func (c *CRS) AuthorityCode() (authority, code string) {
	return c.auth, c.code
}

// WKT exports the CRS as WKT2:2019.
func (c *CRS) WKT() (string, error) {
	return c.export(func(ec *ExecutionContext, pj libproj.PJ) string {
		return libproj.AsWKT(ec.ptr, pj, libproj.WKT2_2019)
	}, "proj_as_wkt")
}

// ProjString exports the CRS as a proj-string where possible.
func (c *CRS) ProjString() (string, error) {
	return c.export(func(ec *ExecutionContext, pj libproj.PJ) string {
		return libproj.AsProjString(ec.ptr, pj, libproj.ProjString5)
	}, "proj_as_proj_string")
}

func (c *CRS) export(fn func(*ExecutionContext, libproj.PJ) string, op string) (string, error) {
	if !c.alive() {
		return "", ErrClosed
	}
	c.h.Acquire()
	defer c.h.Release()

	var out string
	err := c.pool.WithContext(func(ec *ExecutionContext) error {
		pj, err := ec.instance(c.object)
		if err != nil {
			return err
		}
		out = fn(ec, pj)
		if out == "" {
			e := constructionError(ec.ptr, op)
			libproj.ErrnoReset(pj)
			return e
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return out, nil
}
