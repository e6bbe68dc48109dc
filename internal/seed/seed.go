package seed

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/sysu-ecnc-dev/evolution-lab/backend/internal/domain"
	"github.com/sysu-ecnc-dev/evolution-lab/backend/internal/problem"
	"github.com/sysu-ecnc-dev/evolution-lab/backend/internal/repository"
)

var instanceHeaders = []string{"类型", "名称", "属性1", "属性2"}

const defaultHardConstraintPenalty = 10

// ParseInstanceCSV 读取排课实例，每一行的格式为 类型,名称,属性1,属性2
//
//	教师,名称
//	学生组,名称,人数
//	教室,名称,容量
//	时间段,名称,所在的天
//	课程,名称,教师名称,学生组名称
//
// 时间段的先后顺序即行的先后顺序，课程可以引用文件中任意位置的教师和学生组
func ParseInstanceCSV(r io.Reader) (*problem.Instance, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(instanceHeaders)
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("读取表头失败: %w", err)
	}
	for i, header := range instanceHeaders {
		if headers[i] != header {
			return nil, fmt.Errorf("第 %d 列表头应为 %q, 得到 %q", i+1, header, headers[i])
		}
	}

	inst := &problem.Instance{HardConstraintPenalty: defaultHardConstraintPenalty}
	lecturers := make(map[string]int)
	groups := make(map[string]int)
	var modules [][]string

	for line := 2; ; line++ {
		row, err := reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("读取文件失败: %w", err)
		}

		kind, name := row[0], strings.TrimSpace(row[1])
		if name == "" {
			return nil, fmt.Errorf("第 %d 行缺少名称", line)
		}

		switch kind {
		case "教师":
			lecturers[name] = len(inst.Lecturers)
			inst.Lecturers = append(inst.Lecturers, problem.Lecturer{ID: len(inst.Lecturers), Name: name})
		case "学生组":
			size, err := strconv.Atoi(row[2])
			if err != nil || size <= 0 {
				return nil, fmt.Errorf("第 %d 行的人数 %q 无效", line, row[2])
			}
			groups[name] = len(inst.Groups)
			inst.Groups = append(inst.Groups, problem.StudentGroup{ID: len(inst.Groups), Name: name, Size: size})
		case "教室":
			capacity, err := strconv.Atoi(row[2])
			if err != nil || capacity <= 0 {
				return nil, fmt.Errorf("第 %d 行的容量 %q 无效", line, row[2])
			}
			inst.Rooms = append(inst.Rooms, problem.Room{ID: len(inst.Rooms), Name: name, Capacity: capacity})
		case "时间段":
			if row[2] == "" {
				return nil, fmt.Errorf("第 %d 行缺少时间段所在的天", line)
			}
			inst.Timeslots = append(inst.Timeslots, problem.Timeslot{Ordinal: len(inst.Timeslots), Day: row[2], Label: name})
		case "课程":
			modules = append(modules, append([]string{strconv.Itoa(line)}, row[1:]...))
		default:
			return nil, fmt.Errorf("第 %d 行的类型 %q 无效", line, kind)
		}
	}

	for _, m := range modules {
		lecturer, ok := lecturers[m[2]]
		if !ok {
			return nil, fmt.Errorf("第 %s 行引用了不存在的教师 %q", m[0], m[2])
		}
		group, ok := groups[m[3]]
		if !ok {
			return nil, fmt.Errorf("第 %s 行引用了不存在的学生组 %q", m[0], m[3])
		}
		inst.Modules = append(inst.Modules, problem.Module{
			ID:       len(inst.Modules),
			Name:     strings.TrimSpace(m[1]),
			Lecturer: lecturer,
			Group:    group,
		})
	}

	if err := inst.Validate(); err != nil {
		return nil, err
	}

	return inst, nil
}

// SeedInstanceFromCSV 把 CSV 文件中的排课实例写入数据库
func SeedInstanceFromCSV(r *repository.Repository, path string, name string, createdBy int64) {
	file, err := os.Open(path)
	if err != nil {
		slog.Error("打开文件失败", "error", err)
		return
	}
	defer file.Close()

	inst, err := ParseInstanceCSV(file)
	if err != nil {
		slog.Error("解析排课实例失败", "path", path, "error", err)
		return
	}

	ti := &domain.TimetablingInstance{
		Name:        name,
		Description: fmt.Sprintf("%d 门课程、%d 间教室、%d 个时间段", len(inst.Modules), len(inst.Rooms), len(inst.Timeslots)),
		Instance:    *inst,
		CreatedBy:   createdBy,
	}
	if err := r.CreateTimetablingInstance(ti); err != nil {
		slog.Error("插入排课实例失败", "error", err)
		return
	}

	slog.Info("插入排课实例成功", "id", ti.ID, "name", ti.Name)
}
