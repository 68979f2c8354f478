/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-6 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package verifier

import (
	"github.com/theseus-rs/ristretto-sub006/classfile"
	"github.com/theseus-rs/ristretto-sub006/vtype"
)

// Path records which verification strategy actually ran, mirroring
// ristretto_classfile's VerificationPath.
type Path int

const (
	PathSkipped Path = iota
	PathFastPath
	PathInference
	PathCached
)

// Result is the outcome of verifying one method.
type Result struct {
	Path Path
}

// VerifyMethod verifies one method's bytecode per spec.md §4.3,
// selecting the fast or slow path per cf.Version and cfg, and
// applying the cross-cutting checks common to both. hierarchy may be
// nil, in which case reference-type checks degrade to the
// java/lang/Object-only approximation vtype.Merge/AssignableTo use
// without one.
func VerifyMethod(cf *classfile.ClassFile, m *classfile.Method, hierarchy vtype.ClassHierarchy, cfg Config) (Result, error) {
	if err := CheckCodePresence(m); err != nil {
		return Result{}, err
	}
	if m.IsAbstractOrNative() {
		return Result{Path: PathSkipped}, nil
	}

	descriptor, err := cf.ConstantPool.UTF8At(int(m.DescIndex))
	if err != nil {
		return Result{}, err
	}
	md, err := classfile.ParseMethodDescriptor(descriptor)
	if err != nil {
		return Result{}, err
	}
	if err := CheckMaxLocals(m, md); err != nil {
		return Result{}, err
	}
	if err := CheckJumpTargetsInRange(m.Code); err != nil {
		return Result{}, err
	}
	if err := CheckFramesAtJumpTargets(cf.Version, m.Code); err != nil {
		return Result{}, err
	}

	className, err := cf.ThisClassName()
	if err != nil {
		return Result{}, err
	}

	useFastPath := !cfg.ForceInference && cf.Version.RequiresStackMapTable()
	if useFastPath {
		err := fastPathVerify(cf.ConstantPool, className, m, hierarchy)
		if err == nil {
			return Result{Path: PathFastPath}, nil
		}
		// Only absence of a table (errNeedsFallback) is eligible for
		// fallback; any other fast-path failure -- including a
		// malformed table -- is surfaced as-is per spec.md §9's
		// resolved Open Question.
		if err != errNeedsFallback || !cfg.AllowInferenceFallback {
			return Result{}, err
		}
	}

	if err := inferenceVerify(cf.ConstantPool, className, m, hierarchy); err != nil {
		return Result{}, err
	}
	return Result{Path: PathInference}, nil
}

// VerifyMethodCached wraps VerifyMethod with the per-method result
// cache (spec.md §4.3 "Caching"), grounded on unified.rs's
// verify_method_cached.
func VerifyMethodCached(cf *classfile.ClassFile, m *classfile.Method, hierarchy vtype.ClassHierarchy, cfg Config, cache *Cache) (Result, error) {
	className, err := cf.ThisClassName()
	if err != nil {
		return Result{}, err
	}
	methodName, err := cf.ConstantPool.UTF8At(int(m.NameIndex))
	if err != nil {
		return Result{}, err
	}
	descriptor, err := cf.ConstantPool.UTF8At(int(m.DescIndex))
	if err != nil {
		return Result{}, err
	}
	key := MethodKey{ClassName: className, MethodName: methodName, Descriptor: descriptor}

	if cached, ok := cache.Get(key); ok {
		if cached.Success {
			return Result{Path: PathCached}, nil
		}
		return Result{}, &VerifyError{Class: className, Method: methodName, Context: cached.Message}
	}

	result, err := VerifyMethod(cf, m, hierarchy, cfg)
	if err != nil {
		cache.Put(key, CachedResult{Success: false, Message: err.Error()})
		return result, err
	}
	cache.Put(key, CachedResult{Success: true})
	return result, nil
}

// VerifyClass verifies every method in cf, plus the class-level
// Record-attribute check when cf declares one, stopping at the first
// error (spec.md §4.3, grounded on unified.rs's verify_class).
func VerifyClass(cf *classfile.ClassFile, hierarchy vtype.ClassHierarchy, cfg Config, cache *Cache) ([]Result, error) {
	className, err := cf.ThisClassName()
	if err != nil {
		return nil, err
	}
	for _, a := range cf.Attributes {
		if rec, ok := a.(*classfile.RecordAttribute); ok {
			if err := CheckRecordComponents(cf.ConstantPool, className, rec); err != nil {
				return nil, err
			}
		}
	}

	results := make([]Result, 0, len(cf.Methods))
	for _, m := range cf.Methods {
		var (
			r   Result
			err error
		)
		if cache != nil {
			r, err = VerifyMethodCached(cf, m, hierarchy, cfg, cache)
		} else {
			r, err = VerifyMethod(cf, m, hierarchy, cfg)
		}
		if err != nil {
			return results, err
		}
		results = append(results, r)
	}
	return results, nil
}
