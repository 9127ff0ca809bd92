package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Path is either a file or a mongo collection.
type Path struct {
	File string
	DB   string
	Coll string
}

// NewPath returns nil for an empty string. A string naming an existing file,
// or carrying a known file extension, is a file path; otherwise it must be
// {db}.{col}.
func NewPath(filePathOrColl string) (*Path, error) {
	// 检查filePathOrColl是否作为文件存在
	if _, err := os.Stat(filePathOrColl); err == nil {
		return &Path{
			File: filePathOrColl,
		}, nil
	}
	dbDotColl := strings.TrimSpace(filePathOrColl)
	if dbDotColl == "" {
		return nil, nil
	}
	// 输出文件尚不存在，按扩展名判断
	if _, ok := fileFormats[strings.ToLower(filepath.Ext(dbDotColl))]; ok {
		return &Path{
			File: dbDotColl,
		}, nil
	}
	splitted := strings.Split(dbDotColl, ".")
	if len(splitted) != 2 || splitted[0] == "" || splitted[1] == "" {
		return nil, fmt.Errorf("dbDotColl is invalid: %s", dbDotColl)
	}
	return &Path{
		DB:   splitted[0],
		Coll: splitted[1],
	}, nil
}

// 支持的文件格式
var fileFormats = map[string]string{
	".geojson": "geojson",
	".json":    "geojson",
	".shp":     "shapefile",
	".csv":     "csv",
}

func (p *Path) IsFile() bool {
	return p.File != ""
}

// Format returns the file format by extension, "" for collections and
// unknown extensions.
func (p *Path) Format() string {
	return fileFormats[strings.ToLower(filepath.Ext(p.File))]
}

func (p *Path) GetDb() string {
	return p.DB
}

func (p *Path) GetColl() string {
	return p.Coll
}

func (p *Path) String() string {
	if p.File != "" {
		return p.File
	}
	return p.DB + "." + p.Coll
}
