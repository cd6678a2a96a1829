package store

import (
	"database/sql"
	"fmt"

	"github.com/jward/buildgraph/internal/model"
)

// nodeRow is the flattened column set of every dependency variant.
type nodeRow struct {
	Kind           string
	Name           string
	Path           string
	BinaryPath     string
	DSYMPath       string
	InfoPlistPath  string
	PublicHeaders  string
	SwiftModuleMap string
	Linking        string
	Architectures  int64
	SDKKind        string
	SDKStatus      string
}

func encodeNode(d model.Dependency) nodeRow {
	row := nodeRow{Kind: string(d.Kind())}
	switch v := d.(type) {
	case model.TargetDependency:
		row.Name, row.Path = v.Name, v.Path
	case model.FrameworkDependency:
		row.Path, row.BinaryPath, row.DSYMPath = v.Path, v.BinaryPath, v.DSYMPath
		row.Linking, row.Architectures = string(v.Linking), int64(v.Architectures)
	case model.XCFrameworkDependency:
		row.Path, row.InfoPlistPath, row.Linking = v.Path, v.InfoPlistPath, string(v.Linking)
	case model.LibraryDependency:
		row.Path, row.PublicHeaders, row.SwiftModuleMap = v.Path, v.PublicHeaders, v.SwiftModuleMap
		row.Linking, row.Architectures = string(v.Linking), int64(v.Architectures)
	case model.PackageProductDependency:
		row.Name = v.Name
	case model.SDKDependency:
		row.Name, row.SDKKind, row.SDKStatus = v.Name, string(v.SDKKind), string(v.Status)
	case model.CocoaPodsDependency:
		row.Path = v.Path
	}
	return row
}

func decodeNode(row nodeRow) (model.Dependency, error) {
	linking := model.Linking(row.Linking)
	archs := model.Architectures(row.Architectures)
	switch model.DependencyKind(row.Kind) {
	case model.KindTarget:
		return model.TargetDependency{Name: row.Name, Path: row.Path}, nil
	case model.KindFramework:
		return model.FrameworkDependency{
			Path: row.Path, BinaryPath: row.BinaryPath, DSYMPath: row.DSYMPath,
			Linking: linking, Architectures: archs,
		}, nil
	case model.KindXCFramework:
		return model.XCFrameworkDependency{Path: row.Path, InfoPlistPath: row.InfoPlistPath, Linking: linking}, nil
	case model.KindLibrary:
		return model.LibraryDependency{
			Path: row.Path, PublicHeaders: row.PublicHeaders, SwiftModuleMap: row.SwiftModuleMap,
			Linking: linking, Architectures: archs,
		}, nil
	case model.KindPackageProduct:
		return model.PackageProductDependency{Name: row.Name}, nil
	case model.KindSDK:
		return model.SDKDependency{Name: row.Name, SDKKind: model.SDKKind(row.SDKKind), Status: model.SDKStatus(row.SDKStatus)}, nil
	case model.KindCocoaPods:
		return model.CocoaPodsDependency{Path: row.Path}, nil
	}
	return nil, fmt.Errorf("unknown node kind %q", row.Kind)
}

func insertNodeTx(tx *sql.Tx, d model.Dependency) (int64, error) {
	r := encodeNode(d)
	res, err := tx.Exec(
		`INSERT INTO nodes (identity, kind, name, path, binary_path, dsym_path, info_plist_path,
		   public_headers, swift_module_map, linking, architectures, sdk_kind, sdk_status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		model.Identity(d), r.Kind, nullable(r.Name), nullable(r.Path), nullable(r.BinaryPath),
		nullable(r.DSYMPath), nullable(r.InfoPlistPath), nullable(r.PublicHeaders),
		nullable(r.SwiftModuleMap), nullable(r.Linking), r.Architectures,
		nullable(r.SDKKind), nullable(r.SDKStatus),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *Store) loadNodes() (map[int64]model.Dependency, error) {
	rows, err := s.db.Query(
		`SELECT id, kind, name, path, binary_path, dsym_path, info_plist_path,
		   public_headers, swift_module_map, linking, architectures, sdk_kind, sdk_status
		 FROM nodes`)
	if err != nil {
		return nil, fmt.Errorf("query nodes: %w", err)
	}
	defer rows.Close()

	nodes := map[int64]model.Dependency{}
	for rows.Next() {
		var (
			id   int64
			kind string
			cols [10]sql.NullString
			arch sql.NullInt64
		)
		if err := rows.Scan(&id, &kind, &cols[0], &cols[1], &cols[2], &cols[3], &cols[4],
			&cols[5], &cols[6], &cols[7], &arch, &cols[8], &cols[9]); err != nil {
			return nil, fmt.Errorf("scan node: %w", err)
		}
		d, err := decodeNode(nodeRow{
			Kind:           kind,
			Name:           cols[0].String,
			Path:           cols[1].String,
			BinaryPath:     cols[2].String,
			DSYMPath:       cols[3].String,
			InfoPlistPath:  cols[4].String,
			PublicHeaders:  cols[5].String,
			SwiftModuleMap: cols[6].String,
			Linking:        cols[7].String,
			Architectures:  arch.Int64,
			SDKKind:        cols[8].String,
			SDKStatus:      cols[9].String,
		})
		if err != nil {
			return nil, fmt.Errorf("node %d: %w", id, err)
		}
		nodes[id] = d
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("nodes: %w", err)
	}
	return nodes, nil
}
